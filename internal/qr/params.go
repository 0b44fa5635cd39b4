// Package qr holds the user-adjustable parameter set shared by the renderer,
// the composer and the state controller.
package qr

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Size is the edge length of the rendered QR raster in pixels.
type Size int

const (
	SizeSmall  Size = 128
	SizeMedium Size = 256
	SizeLarge  Size = 384
	SizeXLarge Size = 512
)

// Sizes returns the selectable sizes in ascending order.
func Sizes() []Size { return []Size{SizeSmall, SizeMedium, SizeLarge, SizeXLarge} }

// Label is the human readable option text for a size.
func (s Size) Label() string {
	switch s {
	case SizeSmall:
		return "Small - 128px (for small displays)"
	case SizeMedium:
		return "Medium - 256px (recommended)"
	case SizeLarge:
		return "Large - 384px (for printing)"
	case SizeXLarge:
		return "Extra large - 512px (high resolution)"
	}
	return fmt.Sprintf("%dpx", int(s))
}

// ParseSize accepts only the enumerated sizes.
func ParseSize(s string) (Size, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	for _, v := range Sizes() {
		if int(v) == n {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unsupported size %d", n)
}

// ECLevel is the error correction level, ordered from least to most redundant.
type ECLevel int

const (
	LevelLow ECLevel = iota
	LevelMedium
	LevelQuartile
	LevelHigh
)

// ECLevels returns all levels in ascending redundancy.
func ECLevels() []ECLevel { return []ECLevel{LevelLow, LevelMedium, LevelQuartile, LevelHigh} }

func (l ECLevel) String() string {
	switch l {
	case LevelLow:
		return "L"
	case LevelMedium:
		return "M"
	case LevelQuartile:
		return "Q"
	case LevelHigh:
		return "H"
	}
	return "?"
}

// Label is the option text shown in the level select.
func (l ECLevel) Label() string {
	switch l {
	case LevelLow:
		return "L - 7% recovery"
	case LevelMedium:
		return "M - 15% recovery"
	case LevelQuartile:
		return "Q - 25% recovery"
	case LevelHigh:
		return "H - 30% recovery"
	}
	return l.String()
}

// ParseECLevel accepts the single letter names, case insensitive.
func ParseECLevel(s string) (ECLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L":
		return LevelLow, nil
	case "M":
		return LevelMedium, nil
	case "Q":
		return LevelQuartile, nil
	case "H":
		return LevelHigh, nil
	}
	return 0, fmt.Errorf("unsupported error correction level %q", s)
}

// BorderStyle selects the stroke pattern of the frame drawn around the code.
type BorderStyle string

const (
	BorderSolid  BorderStyle = "solid"
	BorderDashed BorderStyle = "dashed"
	BorderDotted BorderStyle = "dotted"
	BorderDouble BorderStyle = "double"
)

// BorderStyles returns the styles in display order.
func BorderStyles() []BorderStyle {
	return []BorderStyle{BorderSolid, BorderDashed, BorderDotted, BorderDouble}
}

// Label is the option text for a style.
func (b BorderStyle) Label() string {
	switch b {
	case BorderDashed:
		return "Dashed"
	case BorderDotted:
		return "Dotted"
	case BorderDouble:
		return "Double"
	}
	return "Solid"
}

func ParseBorderStyle(s string) (BorderStyle, error) {
	v := BorderStyle(strings.ToLower(strings.TrimSpace(s)))
	for _, b := range BorderStyles() {
		if b == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("unsupported border style %q", s)
}

// Bounds of the slider-driven fields.
const (
	MinPadding     = 0
	MaxPadding     = 100
	MinBorderWidth = 0
	MaxBorderWidth = 10
)

// Params is the full set of values that drive rendering and composition.
type Params struct {
	Text        string
	Size        Size
	Level       ECLevel
	Foreground  color.RGBA
	Background  color.RGBA
	Padding     int
	BorderWidth int
	BorderColor color.RGBA
	BorderStyle BorderStyle
}

// Defaults mirrors the initial form state of a fresh page.
func Defaults() Params {
	return Params{
		Size:        SizeMedium,
		Level:       LevelMedium,
		Foreground:  color.RGBA{0, 0, 0, 255},
		Background:  color.RGBA{255, 255, 255, 255},
		Padding:     20,
		BorderWidth: 2,
		BorderColor: color.RGBA{0xE2, 0xE8, 0xF0, 255},
		BorderStyle: BorderSolid,
	}
}

// Normalize clamps the bounded fields and replaces unknown enum values with
// their defaults. Text is never touched.
func (p Params) Normalize() Params {
	d := Defaults()
	p.Padding = Clamp(p.Padding, MinPadding, MaxPadding)
	p.BorderWidth = Clamp(p.BorderWidth, MinBorderWidth, MaxBorderWidth)
	if _, err := ParseSize(strconv.Itoa(int(p.Size))); err != nil {
		p.Size = d.Size
	}
	if p.Level < LevelLow || p.Level > LevelHigh {
		p.Level = d.Level
	}
	if _, err := ParseBorderStyle(string(p.BorderStyle)); err != nil {
		p.BorderStyle = d.BorderStyle
	}
	return p
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParseColor parses "#RRGGBB" or "RRGGBB" into an opaque color.
func ParseColor(s string) (color.RGBA, error) {
	v := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(v) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want #RRGGBB", s)
	}
	r, err1 := strconv.ParseUint(v[0:2], 16, 8)
	g, err2 := strconv.ParseUint(v[2:4], 16, 8)
	b, err3 := strconv.ParseUint(v[4:6], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: not hexadecimal", s)
	}
	return color.RGBA{uint8(r), uint8(g), uint8(b), 255}, nil
}

// ParseColorOr is ParseColor with a fallback for empty or invalid input.
func ParseColorOr(s string, fallback color.RGBA) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		return fallback
	}
	return c
}

// HexColor formats c as "#rrggbb", the form used by HTML color inputs.
func HexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
