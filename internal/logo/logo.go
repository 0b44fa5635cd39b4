// Package logo validates and decodes the optional image embedded in the
// center of the QR code.
package logo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// DefaultMaxBytes is the upload ceiling used when none is configured.
const DefaultMaxBytes int64 = 500_000

// svgRasterEdge is the longest edge an SVG logo is rasterized to.
const svgRasterEdge = 512

var (
	// ErrTooLarge is returned when an upload exceeds the configured ceiling.
	ErrTooLarge = errors.New("logo file is too large")
	// ErrUnsupportedFormat is returned for anything but PNG, JPEG, GIF or SVG.
	ErrUnsupportedFormat = errors.New("unsupported logo format")
)

// Supported lists the accepted MIME types.
var Supported = []string{"image/png", "image/jpeg", "image/gif", "image/svg+xml"}

// Logo is an accepted upload together with its decoded image.
type Logo struct {
	Name  string
	MIME  string
	Data  []byte
	Image image.Image
}

// Size returns the payload length in bytes.
func (l *Logo) Size() int { return len(l.Data) }

// Loader enforces the byte ceiling and decodes uploads.
type Loader struct {
	maxBytes int64
}

// NewLoader returns a loader with the given ceiling. Non-positive values
// fall back to DefaultMaxBytes.
func NewLoader(maxBytes int64) *Loader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Loader{maxBytes: maxBytes}
}

// MaxBytes returns the ceiling in bytes.
func (l *Loader) MaxBytes() int64 { return l.maxBytes }

// HumanMax renders the ceiling for help texts, e.g. "500 kB".
func (l *Loader) HumanMax() string { return humanize.Bytes(uint64(l.maxBytes)) }

// Load reads at most one byte past the ceiling from r, so an oversized
// upload is rejected without buffering all of it.
func (l *Loader) Load(name string, r io.Reader) (*Logo, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read logo: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%w: must be at most %s", ErrTooLarge, l.HumanMax())
	}
	return Decode(name, data)
}

// Decode sniffs data and decodes it into an image.
func Decode(name string, data []byte) (*Logo, error) {
	mt := mimetype.Detect(data)
	kind := ""
	for _, s := range Supported {
		if mt.Is(s) {
			kind = s
			break
		}
	}
	if kind == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt.String())
	}

	var (
		img image.Image
		err error
	)
	if kind == "image/svg+xml" {
		img, err = rasterizeSVG(data, svgRasterEdge)
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnsupportedFormat)
	}

	return &Logo{Name: name, MIME: kind, Data: data, Image: img}, nil
}

// rasterizeSVG draws an SVG onto a transparent canvas whose longest edge is
// edge pixels.
func rasterizeSVG(data []byte, edge int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.WarnErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}

	vw, vh := icon.ViewBox.W, icon.ViewBox.H
	if vw <= 0 || vh <= 0 {
		vw, vh = float64(edge), float64(edge)
	}
	w, h := edge, edge
	if vw > vh {
		h = int(float64(edge) * vh / vw)
	} else if vh > vw {
		w = int(float64(edge) * vw / vh)
	}
	w, h = max(w, 1), max(h, 1)

	icon.SetTarget(0, 0, float64(w), float64(h))
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), image.Transparent, image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return rgba, nil
}

// AcceptAttr is the value of the file input's accept attribute.
func AcceptAttr() string {
	return strings.Join(Supported, ",")
}
