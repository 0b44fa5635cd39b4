// Package toast renders dismissable notification fragments that the page
// script inserts into its toast container.
package toast

import (
	"strconv"

	twmerge "github.com/Oudwins/tailwind-merge-go"
)

type Variant string

const (
	VariantDefault Variant = "default"
	VariantSuccess Variant = "success"
	VariantError   Variant = "error"
	VariantWarning Variant = "warning"
	VariantInfo    Variant = "info"
)

type Position string

const (
	PositionTopRight     Position = "top-right"
	PositionTopCenter    Position = "top-center"
	PositionBottomRight  Position = "bottom-right"
	PositionBottomCenter Position = "bottom-center"
)

// DefaultDuration is used when Props.Duration is zero, in milliseconds.
const DefaultDuration = 3000

type Props struct {
	ID            string
	Class         string
	Title         string
	Description   string
	Variant       Variant
	Position      Position
	Duration      int
	Dismissible   bool
	ShowIndicator bool
	Icon          bool
}

// ParseVariant maps a form value to a Variant. Unknown values are success.
func ParseVariant(s string) Variant {
	switch s {
	case "error", "destructive":
		return VariantError
	case "warning":
		return VariantWarning
	case "info":
		return VariantInfo
	case "default":
		return VariantDefault
	}
	return VariantSuccess
}

var variantClass = map[Variant]string{
	VariantDefault: "border-slate-200 bg-white text-slate-900 dark:border-slate-700 dark:bg-slate-900 dark:text-slate-100",
	VariantSuccess: "border-green-200 bg-green-50 text-green-900 dark:border-green-800 dark:bg-green-950 dark:text-green-100",
	VariantError:   "border-red-200 bg-red-50 text-red-900 dark:border-red-800 dark:bg-red-950 dark:text-red-100",
	VariantWarning: "border-amber-200 bg-amber-50 text-amber-900 dark:border-amber-800 dark:bg-amber-950 dark:text-amber-100",
	VariantInfo:    "border-blue-200 bg-blue-50 text-blue-900 dark:border-blue-800 dark:bg-blue-950 dark:text-blue-100",
}

var positionClass = map[Position]string{
	PositionTopRight:     "top-4 right-4",
	PositionTopCenter:    "top-4 left-1/2 -translate-x-1/2",
	PositionBottomRight:  "bottom-4 right-4",
	PositionBottomCenter: "bottom-4 left-1/2 -translate-x-1/2",
}

var icons = map[Variant]string{
	VariantSuccess: "\u2713",
	VariantError:   "\u26a0",
	VariantWarning: "\u26a0",
	VariantInfo:    "\u2139",
}

func classes(p Props) string {
	return twmerge.Merge(
		"toast pointer-events-auto relative flex w-80 items-start gap-3 overflow-hidden rounded-lg border p-4 shadow-lg",
		variantClass[p.Variant],
		p.Class,
	)
}

// ContainerClass is the class list of the fixed region toasts for pos are
// stacked in.
func ContainerClass(pos Position) string {
	c, ok := positionClass[pos]
	if !ok {
		c = positionClass[PositionBottomRight]
	}
	return twmerge.Merge("pointer-events-none fixed z-50 flex flex-col gap-2", c)
}

func normalize(p Props) Props {
	if _, ok := variantClass[p.Variant]; !ok {
		p.Variant = VariantDefault
	}
	if _, ok := positionClass[p.Position]; !ok {
		p.Position = PositionBottomRight
	}
	if p.Duration <= 0 {
		p.Duration = DefaultDuration
	}
	return p
}

func icon(p Props) string {
	if !p.Icon {
		return ""
	}
	return icons[p.Variant]
}

func duration(p Props) string { return strconv.Itoa(p.Duration) }
