package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cristianadrielbraun/qrframe/internal/logo"
	"github.com/cristianadrielbraun/qrframe/web/pages"
)

// multipartSlack covers the multipart envelope around the file part.
const multipartSlack = 64 << 10

// UploadLogo stores the uploaded logo in the caller's page state and answers
// with the refreshed logo picker. Oversized or unreadable uploads leave the
// current logo untouched.
func (h *Handler) UploadLogo(c *gin.Context) {
	ctrl := h.session(c)
	limit := ctrl.MaxLogoBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartSlack)

	fh, err := c.FormFile("logo")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.rejectTooLarge(c)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "logo file is required"})
		return
	}
	if fh.Size > limit {
		h.rejectTooLarge(c)
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}
	defer f.Close()

	lg, err := ctrl.SetLogo(fh.Filename, f)
	switch {
	case errors.Is(err, logo.ErrTooLarge):
		h.rejectTooLarge(c)
		return
	case errors.Is(err, logo.ErrUnsupportedFormat):
		h.errorToast(c, http.StatusUnsupportedMediaType, "logo_unsupported", "Unsupported logo format. Use PNG, JPG, GIF or SVG")
		return
	case err != nil:
		h.log.Error().Err(err).Msg("load logo")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load logo"})
		return
	}

	h.log.Info().Str("name", lg.Name).Str("mime", lg.MIME).Int("bytes", lg.Size()).Msg("logo set")
	h.renderLogoField(c, ctrl.MaxLogoBytes(), lg)
}

// RemoveLogo clears the logo and resets the picker.
func (h *Handler) RemoveLogo(c *gin.Context) {
	ctrl := h.session(c)
	ctrl.ClearLogo()
	h.renderLogoField(c, ctrl.MaxLogoBytes(), nil)
}

func (h *Handler) rejectTooLarge(c *gin.Context) {
	h.errorToast(c, http.StatusRequestEntityTooLarge, "logo_too_large",
		"Logo file must be smaller than "+h.loader.HumanMax())
}

func (h *Handler) renderLogoField(c *gin.Context, limit int64, lg *logo.Logo) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := pages.LogoField(pages.NewLogoData(lg, limit)).Render(c.Request.Context(), c.Writer); err != nil {
		h.log.Error().Err(err).Msg("render logo field")
	}
}
