package state

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianadrielbraun/qrframe/internal/logo"
	"github.com/cristianadrielbraun/qrframe/internal/qr"
	"github.com/cristianadrielbraun/qrframe/internal/render"
)

// fakeRenderer paints a solid foreground square and counts calls.
type fakeRenderer struct {
	mu       sync.Mutex
	calls    int
	lastLogo image.Image
	err      error
}

func (f *fakeRenderer) Name() string { return "fake" }

func (f *fakeRenderer) Render(p qr.Params, l image.Image) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastLogo = l
	if f.err != nil {
		return nil, f.err
	}
	if p.Text == "" {
		return nil, render.ErrEmptyText
	}
	img := image.NewRGBA(image.Rect(0, 0, int(p.Size), int(p.Size)))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: p.Foreground}, image.Point{}, draw.Src)
	return img, nil
}

func (f *fakeRenderer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func pngPayload(t *testing.T, n int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	require.LessOrEqual(t, buf.Len(), n)
	out := make([]byte, n)
	copy(out, buf.Bytes())
	return out
}

func newTestController(t *testing.T, maxLogo int64) (*Controller, *fakeRenderer) {
	t.Helper()
	r := &fakeRenderer{}
	return NewController(qr.Defaults(), logo.NewLoader(maxLogo), r), r
}

func TestController_Defaults(t *testing.T) {
	c, _ := newTestController(t, 0)
	assert.Equal(t, qr.Defaults(), c.Params())
	assert.False(t, c.HasPreview())
	assert.Nil(t, c.Logo())
	assert.Equal(t, logo.DefaultMaxBytes, c.MaxLogoBytes())
}

func TestController_ClearingTextKeepsSettings(t *testing.T) {
	c, r := newTestController(t, 1000)
	c.SetText("https://example.com")
	_, err := c.SetLogo("logo.png", bytes.NewReader(pngPayload(t, 200)))
	require.NoError(t, err)
	c.SetBorderWidth(6)
	c.SetBorderStyle(qr.BorderDouble)
	require.NoError(t, c.SetBorderColor("#112233"))

	_, err = c.Preview()
	require.NoError(t, err)
	assert.NotNil(t, r.lastLogo)

	c.SetText("")
	assert.False(t, c.HasPreview())
	_, err = c.Preview()
	assert.ErrorIs(t, err, ErrNoText)

	p := c.Params()
	assert.Equal(t, 6, p.BorderWidth)
	assert.Equal(t, qr.BorderDouble, p.BorderStyle)
	assert.Equal(t, "#112233", qr.HexColor(p.BorderColor))
	assert.NotNil(t, c.Logo())

	c.SetText("back again")
	img, err := c.Preview()
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}

func TestController_LogoCeiling(t *testing.T) {
	const ceiling = 400
	c, _ := newTestController(t, ceiling)

	first, err := c.SetLogo("first.png", bytes.NewReader(pngPayload(t, 100)))
	require.NoError(t, err)

	exact, err := c.SetLogo("exact.png", bytes.NewReader(pngPayload(t, ceiling)))
	require.NoError(t, err)
	assert.Equal(t, ceiling, exact.Size())
	assert.Same(t, exact, c.Logo())
	assert.NotSame(t, first, c.Logo())

	_, err = c.SetLogo("over.png", bytes.NewReader(pngPayload(t, ceiling+1)))
	assert.ErrorIs(t, err, logo.ErrTooLarge)
	assert.Same(t, exact, c.Logo(), "rejected upload must not replace the logo")

	_, err = c.SetLogo("notes.txt", bytes.NewReader([]byte("plain text")))
	assert.ErrorIs(t, err, logo.ErrUnsupportedFormat)
	assert.Same(t, exact, c.Logo())
}

func TestController_ClearLogo(t *testing.T) {
	c, r := newTestController(t, 1000)
	c.SetText("hello")
	_, err := c.SetLogo("logo.png", bytes.NewReader(pngPayload(t, 300)))
	require.NoError(t, err)

	c.ClearLogo()
	assert.Nil(t, c.Logo())

	_, err = c.Preview()
	require.NoError(t, err)
	assert.Nil(t, r.lastLogo)

	// Clearing twice is a no-op.
	c.ClearLogo()
	assert.Nil(t, c.Logo())
}

func TestController_PreviewCache(t *testing.T) {
	c, r := newTestController(t, 0)
	c.SetText("cache me")

	_, err := c.Preview()
	require.NoError(t, err)
	_, err = c.Preview()
	require.NoError(t, err)
	assert.Equal(t, 1, r.Calls())

	// Frame settings do not touch the barcode itself.
	c.SetPadding(50)
	c.SetBorderWidth(8)
	c.SetBorderStyle(qr.BorderDotted)
	_, err = c.Preview()
	require.NoError(t, err)
	assert.Equal(t, 1, r.Calls())

	c.SetSize(qr.SizeSmall)
	img, err := c.Preview()
	require.NoError(t, err)
	assert.Equal(t, 2, r.Calls())
	assert.Equal(t, 128, img.Bounds().Dx())

	require.NoError(t, c.SetForeground("#ff0000"))
	_, err = c.Preview()
	require.NoError(t, err)
	assert.Equal(t, 3, r.Calls())
}

func TestController_FramedPreview(t *testing.T) {
	c, r := newTestController(t, 0)

	_, _, err := c.FramedPreview()
	assert.ErrorIs(t, err, ErrNoText)

	c.SetText("framed")
	img, opts, err := c.FramedPreview()
	require.NoError(t, err)
	assert.Equal(t, 256+2*20+2*2, img.Bounds().Dx())
	assert.Equal(t, 20, opts.Padding)

	// The frame follows padding and border edits without a new render.
	c.SetPadding(0)
	c.SetBorderWidth(10)
	require.NoError(t, c.SetBorderColor("#0000ff"))
	img, _, err = c.FramedPreview()
	require.NoError(t, err)
	assert.Equal(t, 256+2*10, img.Bounds().Dx())
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, color.RGBAModel.Convert(img.At(5, 100)))
	assert.Equal(t, 1, r.Calls())

	c.SetBorderWidth(0)
	img, _, err = c.FramedPreview()
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}

func TestController_ExportEmptyText(t *testing.T) {
	c, r := newTestController(t, 0)
	data, err := c.Export(FormatPNG)
	assert.ErrorIs(t, err, ErrNoText)
	assert.Nil(t, data)
	assert.Equal(t, 0, r.Calls())
}

func TestController_ExportDimensions(t *testing.T) {
	c, _ := newTestController(t, 0)
	c.SetText("export")
	c.SetSize(qr.SizeSmall)
	c.SetPadding(15)
	c.SetBorderWidth(3)

	data, err := c.Export(FormatPNG)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 128+2*15+2*3, img.Bounds().Dx())
	assert.Equal(t, 128+2*15+2*3, img.Bounds().Dy())

	// The padding is background colored.
	r, g, b, _ := img.At(3, 100).RGBA()
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 255})
}

func TestController_ExportJPEG(t *testing.T) {
	c, _ := newTestController(t, 0)
	c.SetText("jpeg please")
	data, err := c.Export(FormatJPG)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8}, data[:2])
}

func TestController_ExportRenderFailure(t *testing.T) {
	c, r := newTestController(t, 0)
	r.err = errors.New("boom")
	c.SetText("x")
	data, err := c.Export(FormatPNG)
	assert.Error(t, err)
	assert.Nil(t, data)
}

func TestController_Apply(t *testing.T) {
	c, _ := newTestController(t, 0)

	require.NoError(t, c.Apply(FieldText, "hello"))
	require.NoError(t, c.Apply(FieldSize, "512"))
	require.NoError(t, c.Apply(FieldLevel, "H"))
	require.NoError(t, c.Apply(FieldForeground, "#010203"))
	require.NoError(t, c.Apply(FieldBackground, "#fefefe"))
	require.NoError(t, c.Apply(FieldPadding, "140"))
	require.NoError(t, c.Apply(FieldBorderWidth, "7"))
	require.NoError(t, c.Apply(FieldBorderColor, "#abcdef"))
	require.NoError(t, c.Apply(FieldBorderStyle, "dashed"))

	p := c.Params()
	assert.Equal(t, "hello", p.Text)
	assert.Equal(t, qr.SizeXLarge, p.Size)
	assert.Equal(t, qr.LevelHigh, p.Level)
	assert.Equal(t, "#010203", qr.HexColor(p.Foreground))
	assert.Equal(t, "#fefefe", qr.HexColor(p.Background))
	assert.Equal(t, qr.MaxPadding, p.Padding)
	assert.Equal(t, 7, p.BorderWidth)
	assert.Equal(t, "#abcdef", qr.HexColor(p.BorderColor))
	assert.Equal(t, qr.BorderDashed, p.BorderStyle)

	assert.ErrorIs(t, c.Apply("shape", "circle"), ErrUnknownField)
	assert.Error(t, c.Apply(FieldSize, "300"))
	assert.Error(t, c.Apply(FieldPadding, "lots"))
	assert.Error(t, c.Apply(FieldBorderColor, "blue"))
	assert.Equal(t, "#abcdef", qr.HexColor(c.Params().BorderColor), "invalid color keeps the previous value")
}

func TestController_ConcurrentUpdates(t *testing.T) {
	c, _ := newTestController(t, 0)
	c.SetText("race")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.SetPadding(i)
		}(i)
		go func() {
			defer wg.Done()
			_, _ = c.Export(FormatPNG)
		}()
	}
	wg.Wait()

	p := c.Params()
	assert.GreaterOrEqual(t, p.Padding, 0)
	assert.Less(t, p.Padding, 20)
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatPNG, ParseFormat(""))
	assert.Equal(t, FormatPNG, ParseFormat("svg"))
	assert.Equal(t, FormatJPG, ParseFormat("jpeg"))
	assert.Equal(t, "qrcode.png", FormatPNG.Filename())
	assert.Equal(t, "image/jpeg", FormatJPG.ContentType())
}
