package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cristianadrielbraun/qrframe/internal/compose"
	"github.com/cristianadrielbraun/qrframe/internal/qr"
	"github.com/cristianadrielbraun/qrframe/internal/render"
	"github.com/cristianadrielbraun/qrframe/internal/state"
)

// maxQueryText caps the text accepted by the stateless endpoint.
const maxQueryText = 4096

// UpdateParam applies one form field change to the caller's page state.
func (h *Handler) UpdateParam(c *gin.Context) {
	ctrl := h.session(c)
	field := c.PostForm("field")
	value := c.PostForm("value")

	if err := ctrl.Apply(field, value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// Preview serves the live raster framed with the current padding and border,
// exactly as it would be downloaded.
func (h *Handler) Preview(c *gin.Context) {
	ctrl := h.session(c)
	img, _, err := ctrl.FramedPreview()
	if errors.Is(err, state.ErrNoText) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("render preview")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render QR code"})
		return
	}

	var buf bytes.Buffer
	if err := compose.EncodePNG(&buf, img); err != nil {
		h.log.Error().Err(err).Msg("encode preview")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode QR code"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// Export frames the live raster with padding and border and sends it as a
// download named qrcode.png.
func (h *Handler) Export(c *gin.Context) {
	ctrl := h.session(c)
	format := state.ParseFormat(strings.ToLower(c.DefaultQuery("format", "png")))

	start := time.Now()
	data, err := ctrl.Export(format)
	if errors.Is(err, state.ErrNoText) || errors.Is(err, compose.ErrNoSource) {
		h.errorToast(c, http.StatusUnprocessableEntity, "no_text", "Please enter text first")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("export")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export QR code"})
		return
	}
	h.metrics.ObserveCompose(start)
	h.metrics.Exports.WithLabelValues(string(format)).Inc()
	h.log.Info().Str("format", string(format)).Int("bytes", len(data)).Msg("export")

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, format.ContentType(), data)
}

// QRCodeHandler generates a framed QR code entirely from query parameters.
// Invalid values fall back to the configured defaults.
func (h *Handler) QRCodeHandler(c *gin.Context) {
	p, format := h.queryParams(c)
	if p.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text parameter is required"})
		return
	}
	if len(p.Text) > maxQueryText {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is too long"})
		return
	}

	start := time.Now()
	img, err := h.renderer.Render(p, nil)
	if errors.Is(err, render.ErrEmptyText) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text parameter is required"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("render qr")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate QR code"})
		return
	}

	opts := compose.OptionsFrom(p)
	framed, err := compose.Compose(img, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if format == state.FormatJPG {
		err = compose.EncodeJPEG(&buf, framed, opts.Background, 92)
	} else {
		err = compose.EncodePNG(&buf, framed)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("encode qr")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode QR code"})
		return
	}
	h.metrics.ObserveCompose(start)

	h.log.Debug().
		Int("size", int(p.Size)).
		Str("level", p.Level.String()).
		Str("style", string(p.BorderStyle)).
		Str("format", string(format)).
		Msg("stateless qr")

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// queryParams reads the stateless endpoint's parameters.
func (h *Handler) queryParams(c *gin.Context) (qr.Params, state.Format) {
	p := h.defaults
	p.Text = c.Query("text")

	if v := c.Query("size"); v != "" {
		if s, err := qr.ParseSize(v); err == nil {
			p.Size = s
		}
	}
	if v := c.Query("level"); v != "" {
		if l, err := qr.ParseECLevel(v); err == nil {
			p.Level = l
		}
	}
	if v := c.Query("borderStyle"); v != "" {
		if b, err := qr.ParseBorderStyle(v); err == nil {
			p.BorderStyle = b
		}
	}
	p.Foreground = qr.ParseColorOr(c.Query("fg"), p.Foreground)
	p.Background = qr.ParseColorOr(c.Query("bg"), p.Background)
	p.BorderColor = qr.ParseColorOr(c.Query("borderColor"), p.BorderColor)
	p.Padding = queryInt(c, "padding", p.Padding)
	p.BorderWidth = queryInt(c, "borderWidth", p.BorderWidth)

	return p.Normalize(), state.ParseFormat(strings.ToLower(c.Query("format")))
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
