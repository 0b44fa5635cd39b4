// Package state holds the per-page parameter set, the optional logo and the
// live preview raster, and keeps them consistent as the user edits the form.
package state

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"
	"sync"

	"github.com/cristianadrielbraun/qrframe/internal/compose"
	"github.com/cristianadrielbraun/qrframe/internal/logo"
	"github.com/cristianadrielbraun/qrframe/internal/qr"
	"github.com/cristianadrielbraun/qrframe/internal/render"
)

var (
	// ErrNoText means there is nothing to preview or export yet.
	ErrNoText = errors.New("enter text first")
	// ErrUnknownField is returned by Apply for names it does not handle.
	ErrUnknownField = errors.New("unknown field")
)

// Form field names accepted by Apply.
const (
	FieldText        = "text"
	FieldSize        = "size"
	FieldLevel       = "level"
	FieldForeground  = "fg"
	FieldBackground  = "bg"
	FieldPadding     = "padding"
	FieldBorderWidth = "borderWidth"
	FieldBorderColor = "borderColor"
	FieldBorderStyle = "borderStyle"
)

// Format is the file format of an export.
type Format string

const (
	FormatPNG Format = "png"
	FormatJPG Format = "jpg"
)

// ParseFormat maps a query value to a Format, defaulting to PNG.
func ParseFormat(s string) Format {
	switch s {
	case "jpg", "jpeg":
		return FormatJPG
	}
	return FormatPNG
}

// Filename is the download name of an export in this format.
func (f Format) Filename() string { return "qrcode." + string(f) }

// ContentType is the MIME type of an export in this format.
func (f Format) ContentType() string {
	if f == FormatJPG {
		return "image/jpeg"
	}
	return "image/png"
}

// Controller owns one page's parameters. All methods are safe for
// concurrent use; calls are applied one at a time.
type Controller struct {
	mu       sync.Mutex
	params   qr.Params
	logo     *logo.Logo
	loader   *logo.Loader
	renderer render.Renderer

	preview image.Image
	stale   bool
}

// NewController starts from defaults with an empty text.
func NewController(defaults qr.Params, loader *logo.Loader, renderer render.Renderer) *Controller {
	if loader == nil {
		loader = logo.NewLoader(logo.DefaultMaxBytes)
	}
	return &Controller{
		params:   defaults.Normalize(),
		loader:   loader,
		renderer: renderer,
		stale:    true,
	}
}

// Params returns a copy of the current parameters.
func (c *Controller) Params() qr.Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Logo returns the current logo, or nil.
func (c *Controller) Logo() *logo.Logo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logo
}

// HasPreview reports whether a preview should be shown.
func (c *Controller) HasPreview() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params.Text != ""
}

// MaxLogoBytes is the upload ceiling.
func (c *Controller) MaxLogoBytes() int64 { return c.loader.MaxBytes() }

// update applies fn under the lock and drops the live raster when the
// rendering inputs changed.
func (c *Controller) update(fn func(p *qr.Params)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	before := c.params
	fn(&c.params)
	c.params = c.params.Normalize()
	if renderInputs(before) != renderInputs(c.params) {
		c.stale = true
		c.preview = nil
	}
}

type renderKey struct {
	text   string
	size   qr.Size
	level  qr.ECLevel
	fg, bg [4]uint8
}

func renderInputs(p qr.Params) renderKey {
	return renderKey{
		text:  p.Text,
		size:  p.Size,
		level: p.Level,
		fg:    [4]uint8{p.Foreground.R, p.Foreground.G, p.Foreground.B, p.Foreground.A},
		bg:    [4]uint8{p.Background.R, p.Background.G, p.Background.B, p.Background.A},
	}
}

// SetText accepts any string. An empty string hides the preview but keeps
// every other value.
func (c *Controller) SetText(s string) { c.update(func(p *qr.Params) { p.Text = s }) }

func (c *Controller) SetSize(s qr.Size) { c.update(func(p *qr.Params) { p.Size = s }) }

func (c *Controller) SetLevel(l qr.ECLevel) { c.update(func(p *qr.Params) { p.Level = l }) }

func (c *Controller) SetForeground(hex string) error {
	col, err := qr.ParseColor(hex)
	if err != nil {
		return err
	}
	c.update(func(p *qr.Params) { p.Foreground = col })
	return nil
}

func (c *Controller) SetBackground(hex string) error {
	col, err := qr.ParseColor(hex)
	if err != nil {
		return err
	}
	c.update(func(p *qr.Params) { p.Background = col })
	return nil
}

// SetPadding clamps to [0,100].
func (c *Controller) SetPadding(v int) { c.update(func(p *qr.Params) { p.Padding = v }) }

// SetBorderWidth clamps to [0,10].
func (c *Controller) SetBorderWidth(v int) { c.update(func(p *qr.Params) { p.BorderWidth = v }) }

func (c *Controller) SetBorderColor(hex string) error {
	col, err := qr.ParseColor(hex)
	if err != nil {
		return err
	}
	c.update(func(p *qr.Params) { p.BorderColor = col })
	return nil
}

func (c *Controller) SetBorderStyle(s qr.BorderStyle) {
	c.update(func(p *qr.Params) { p.BorderStyle = s })
}

// Apply sets one form field from its string value.
func (c *Controller) Apply(field, value string) error {
	switch field {
	case FieldText:
		c.SetText(value)
	case FieldSize:
		s, err := qr.ParseSize(value)
		if err != nil {
			return err
		}
		c.SetSize(s)
	case FieldLevel:
		l, err := qr.ParseECLevel(value)
		if err != nil {
			return err
		}
		c.SetLevel(l)
	case FieldForeground:
		return c.SetForeground(value)
	case FieldBackground:
		return c.SetBackground(value)
	case FieldPadding:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid padding %q: %w", value, err)
		}
		c.SetPadding(n)
	case FieldBorderWidth:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid border width %q: %w", value, err)
		}
		c.SetBorderWidth(n)
	case FieldBorderColor:
		return c.SetBorderColor(value)
	case FieldBorderStyle:
		s, err := qr.ParseBorderStyle(value)
		if err != nil {
			return err
		}
		c.SetBorderStyle(s)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// SetLogo reads and validates an upload. The read happens outside the lock;
// on any error the current logo is left untouched.
func (c *Controller) SetLogo(name string, r io.Reader) (*logo.Logo, error) {
	l, err := c.loader.Load(name, r)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logo = l
	c.stale = true
	c.preview = nil
	return l, nil
}

// ClearLogo removes the logo.
func (c *Controller) ClearLogo() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.logo == nil {
		return
	}
	c.logo = nil
	c.stale = true
	c.preview = nil
}

// Preview returns the live raster, rendering it if any input changed since
// the last call. It returns ErrNoText while the text is empty.
func (c *Controller) Preview() (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.previewLocked()
}

func (c *Controller) previewLocked() (image.Image, error) {
	if c.params.Text == "" {
		return nil, ErrNoText
	}
	if !c.stale && c.preview != nil {
		return c.preview, nil
	}
	var logoImg image.Image
	if c.logo != nil {
		logoImg = c.logo.Image
	}
	img, err := c.renderer.Render(c.params, logoImg)
	if err != nil {
		if errors.Is(err, render.ErrEmptyText) {
			return nil, ErrNoText
		}
		return nil, fmt.Errorf("render preview: %w", err)
	}
	c.preview = img
	c.stale = false
	return img, nil
}

// FramedPreview is the live raster with the current padding and border, the
// image an export would contain. Frame changes never re-render the raster.
func (c *Controller) FramedPreview() (image.Image, compose.Options, error) {
	c.mu.Lock()
	img, err := c.previewLocked()
	opts := compose.OptionsFrom(c.params)
	c.mu.Unlock()
	if err != nil {
		return nil, opts, err
	}

	framed, err := compose.Compose(img, opts)
	if err != nil {
		return nil, opts, err
	}
	return framed, opts, nil
}

// Export frames the live raster and encodes it. Nothing is returned unless
// encoding succeeded.
func (c *Controller) Export(format Format) ([]byte, error) {
	framed, opts, err := c.FramedPreview()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case FormatJPG:
		err = compose.EncodeJPEG(&buf, framed, opts.Background, 92)
	default:
		err = compose.EncodePNG(&buf, framed)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
