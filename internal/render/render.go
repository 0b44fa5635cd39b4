// Package render turns a parameter set into a QR raster of exactly
// Size x Size pixels. The encoding itself is delegated to third-party
// libraries behind the Renderer interface.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/cristianadrielbraun/qrframe/internal/qr"
)

// ErrEmptyText is returned when asked to render an empty string.
var ErrEmptyText = errors.New("text is required")

// LogoScale is the logo edge relative to the QR edge.
const LogoScale = 0.2

// Renderer draws the QR matrix for p. logo may be nil.
type Renderer interface {
	Render(p qr.Params, logo image.Image) (image.Image, error)
	Name() string
}

// Engine names accepted by New.
const (
	EngineYeqown = "yeqown"
	EngineSkip2  = "skip2"
)

// Engines lists the available engine names.
func Engines() []string { return []string{EngineYeqown, EngineSkip2} }

// New returns the renderer registered under name.
func New(name string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EngineYeqown:
		return Yeqown{}, nil
	case EngineSkip2:
		return Skip2{}, nil
	}
	return nil, fmt.Errorf("unknown render engine %q (want one of %s)", name, strings.Join(Engines(), ", "))
}

// scaleExact resizes img to size x size with nearest neighbour so module
// edges stay sharp.
func scaleExact(img image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	b := img.Bounds()
	if b.Dx() == size && b.Dy() == size {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
