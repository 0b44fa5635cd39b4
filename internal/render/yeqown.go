package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"

	"github.com/cristianadrielbraun/qrframe/internal/qr"
)

// Yeqown renders with github.com/yeqown/go-qrcode. The logo is embedded by
// the library's standard writer over an excavated area.
type Yeqown struct{}

func (Yeqown) Name() string { return EngineYeqown }

func (Yeqown) Render(p qr.Params, logo image.Image) (image.Image, error) {
	if p.Text == "" {
		return nil, ErrEmptyText
	}
	size := int(p.Size)

	qrc, err := qrcode.NewWith(p.Text, yeqownLevel(p.Level))
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	dimension := qrc.Dimension()
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid QR matrix dimension %d", dimension)
	}

	// Render at the smallest module width that reaches the target, then
	// scale down to the exact size.
	moduleSize := (size + dimension - 1) / dimension
	if moduleSize < 1 {
		moduleSize = 1
	}
	if moduleSize > 255 {
		moduleSize = 255
	}

	opts := []standard.ImageOption{
		standard.WithQRWidth(uint8(moduleSize)),
		standard.WithBorderWidth(0),
		standard.WithBgColor(p.Background),
		standard.WithFgColor(p.Foreground),
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
	}
	if logo != nil {
		// The standard writer refuses logos wider than a fifth of the code.
		// The safe zone clears the modules behind the logo so transparent
		// areas show the background.
		edge := dimension * moduleSize / 5
		opts = append(opts,
			standard.WithLogoImage(fitLogo(logo, edge)),
			standard.WithLogoSafeZone(),
		)
	}

	var buf bytes.Buffer
	w := standard.NewWithWriter(nopCloser{&buf}, opts...)
	if err := qrc.Save(w); err != nil {
		return nil, fmt.Errorf("write qr image: %w", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode qr image: %w", err)
	}
	return scaleExact(img, size), nil
}

func yeqownLevel(l qr.ECLevel) qrcode.EncodeOption {
	switch l {
	case qr.LevelLow:
		return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionLow)
	case qr.LevelQuartile:
		return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionQuart)
	case qr.LevelHigh:
		return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionHighest)
	}
	return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium)
}

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }
