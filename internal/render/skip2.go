package render

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/cristianadrielbraun/qrframe/internal/qr"
)

// Skip2 renders with github.com/skip2/go-qrcode. The library has no logo
// support, so the logo is drawn over an excavated center square.
type Skip2 struct{}

func (Skip2) Name() string { return EngineSkip2 }

func (Skip2) Render(p qr.Params, logo image.Image) (image.Image, error) {
	if p.Text == "" {
		return nil, ErrEmptyText
	}
	size := int(p.Size)

	q, err := qrcode.New(p.Text, skip2Level(p.Level))
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	q.DisableBorder = true
	q.ForegroundColor = p.Foreground
	q.BackgroundColor = p.Background

	out := scaleExact(q.Image(size), size)
	if logo == nil {
		return out, nil
	}

	edge := int(float64(size) * LogoScale)
	if edge < 1 {
		return out, nil
	}
	dc := gg.NewContextForRGBA(out)
	center := float64(size) / 2
	dc.SetColor(p.Background)
	dc.DrawRectangle(center-float64(edge)/2, center-float64(edge)/2, float64(edge), float64(edge))
	dc.Fill()
	dc.DrawImageAnchored(fitLogo(logo, edge), int(center), int(center), 0.5, 0.5)
	return out, nil
}

func skip2Level(l qr.ECLevel) qrcode.RecoveryLevel {
	switch l {
	case qr.LevelLow:
		return qrcode.Low
	case qr.LevelQuartile:
		return qrcode.High
	case qr.LevelHigh:
		return qrcode.Highest
	}
	return qrcode.Medium
}

// fitLogo shrinks logo to fit an edge x edge box, keeping its aspect ratio.
func fitLogo(logo image.Image, edge int) image.Image {
	if edge < 1 {
		edge = 1
	}
	return resize.Thumbnail(uint(edge), uint(edge), logo, resize.Lanczos3)
}
