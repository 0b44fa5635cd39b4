// Package pages renders the single generator page and the fragments the page
// script swaps into it.
package pages

import (
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/cristianadrielbraun/qrframe/internal/logo"
	"github.com/cristianadrielbraun/qrframe/internal/qr"
	"github.com/cristianadrielbraun/qrframe/web/components"
	"github.com/cristianadrielbraun/qrframe/web/components/toast"
)

// HomeData is the view model of the generator page.
type HomeData struct {
	Title   string
	Version string

	Text         string
	Sizes        []components.Option
	Levels       []components.Option
	BorderStyles []components.Option
	Foreground   string
	Background   string
	BorderColor  string
	Padding      int
	BorderWidth  int
	MinPadding   int
	MaxPadding   int
	MinBorder    int
	MaxBorder    int

	Logo components.LogoData

	HasPreview     bool
	ToastContainer string
}

// NewHomeData builds the view model from the current page state.
func NewHomeData(p qr.Params, lg *logo.Logo, maxLogoBytes int64, version string) HomeData {
	d := HomeData{
		Title:          "QR Code Generator",
		Version:        version,
		Text:           p.Text,
		Foreground:     qr.HexColor(p.Foreground),
		Background:     qr.HexColor(p.Background),
		BorderColor:    qr.HexColor(p.BorderColor),
		Padding:        p.Padding,
		BorderWidth:    p.BorderWidth,
		MinPadding:     qr.MinPadding,
		MaxPadding:     qr.MaxPadding,
		MinBorder:      qr.MinBorderWidth,
		MaxBorder:      qr.MaxBorderWidth,
		Logo:           NewLogoData(lg, maxLogoBytes),
		HasPreview:     p.Text != "",
		ToastContainer: toast.ContainerClass(toast.PositionBottomRight),
	}
	for _, s := range qr.Sizes() {
		d.Sizes = append(d.Sizes, components.Option{Value: strconv.Itoa(int(s)), Label: s.Label(), Selected: s == p.Size})
	}
	for _, l := range qr.ECLevels() {
		d.Levels = append(d.Levels, components.Option{Value: l.String(), Label: l.Label(), Selected: l == p.Level})
	}
	for _, b := range qr.BorderStyles() {
		d.BorderStyles = append(d.BorderStyles, components.Option{Value: string(b), Label: b.Label(), Selected: b == p.BorderStyle})
	}
	return d
}

// NewLogoData describes the logo picker. The help text is derived from the
// same ceiling the loader enforces.
func NewLogoData(lg *logo.Logo, maxBytes int64) components.LogoData {
	d := components.LogoData{
		Help:   "PNG, JPG, GIF or SVG up to " + humanize.Bytes(uint64(maxBytes)),
		Accept: logo.AcceptAttr(),
	}
	if lg != nil {
		d.Present = true
		d.Name = lg.Name
		d.Size = humanize.Bytes(uint64(lg.Size()))
	}
	return d
}
