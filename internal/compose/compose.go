// Package compose frames a rendered QR raster with padding and a styled
// border and encodes the result for download.
package compose

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/fogleman/gg"

	"github.com/cristianadrielbraun/qrframe/internal/qr"
)

// ErrNoSource is returned when there is no live raster to frame.
var ErrNoSource = errors.New("no rendered QR code to export")

// Options describes the frame drawn around the source raster.
type Options struct {
	Padding     int
	BorderWidth int
	BorderColor color.RGBA
	BorderStyle qr.BorderStyle
	Background  color.RGBA
}

// OptionsFrom picks the frame settings out of a parameter set.
func OptionsFrom(p qr.Params) Options {
	return Options{
		Padding:     p.Padding,
		BorderWidth: p.BorderWidth,
		BorderColor: p.BorderColor,
		BorderStyle: p.BorderStyle,
		Background:  p.Background,
	}
}

// Size returns the dimensions of the framed image for a source of w x h.
func (o Options) Size(w, h int) (int, int) {
	extra := 2*max(o.Padding, 0) + 2*max(o.BorderWidth, 0)
	return w + extra, h + extra
}

// Compose returns a new image of (W+2P+2B) x (H+2P+2B): background fill,
// border stroke, and the source copied at (B+P, B+P).
func Compose(src image.Image, o Options) (*image.RGBA, error) {
	if src == nil {
		return nil, ErrNoSource
	}
	pad := max(o.Padding, 0)
	bw := max(o.BorderWidth, 0)

	sb := src.Bounds()
	width, height := o.Size(sb.Dx(), sb.Dy())
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: o.Background}, image.Point{}, draw.Src)

	if bw > 0 {
		strokeBorder(dst, bw, o.BorderColor, o.BorderStyle)
	}

	off := bw + pad
	draw.Draw(dst, image.Rect(off, off, off+sb.Dx(), off+sb.Dy()), src, sb.Min, draw.Over)
	return dst, nil
}

// strokeBorder draws the frame on dst with line width bw, centered bw/2 in
// from the edge.
func strokeBorder(dst *image.RGBA, bw int, c color.RGBA, style qr.BorderStyle) {
	w := float64(dst.Bounds().Dx())
	h := float64(dst.Bounds().Dy())
	b := float64(bw)

	dc := gg.NewContextForRGBA(dst)
	dc.SetColor(c)
	dc.SetLineWidth(b)
	dc.SetLineCap(gg.LineCapButt)

	switch style {
	case qr.BorderDashed:
		dc.SetDash(b*3, b*2)
	case qr.BorderDotted:
		dc.SetDash(b, b)
	case qr.BorderDouble:
		dc.DrawRectangle(b/2, b/2, w-b, h-b)
		dc.Stroke()
		if w-4*b > 0 && h-4*b > 0 {
			dc.DrawRectangle(b*2, b*2, w-b*4, h-b*4)
			dc.Stroke()
		}
		return
	}

	dc.DrawRectangle(b/2, b/2, w-b, h-b)
	dc.Stroke()
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// EncodeJPEG flattens img onto an opaque background and writes it as JPEG.
func EncodeJPEG(w io.Writer, img image.Image, bg color.RGBA, quality int) error {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	bg.A = 255
	draw.Draw(out, bounds, &image.Uniform{C: bg}, image.Point{}, draw.Src)
	draw.Draw(out, bounds, img, bounds.Min, draw.Over)
	return jpeg.Encode(w, out, &jpeg.Options{Quality: quality})
}
