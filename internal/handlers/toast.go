package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cristianadrielbraun/qrframe/web/components/toast"
)

// toastDuration keeps notifications on screen for two seconds.
const toastDuration = 2000

// GenericToast returns a Toast component rendered as HTML for client swaps.
func (h *Handler) GenericToast(c *gin.Context) {
	h.writeToast(c, http.StatusOK, toast.Props{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Variant:     toast.ParseVariant(c.PostForm("variant")),
		Dismissible: c.PostForm("dismissible") == "on",
	})
}

// errorToast answers a refused user action with a dismissable notification.
func (h *Handler) errorToast(c *gin.Context, status int, reason, description string) {
	h.metrics.Rejections.WithLabelValues(reason).Inc()
	h.log.Warn().Str("reason", reason).Int("status", status).Msg(description)
	h.writeToast(c, status, toast.Props{
		Title:       "Error",
		Description: description,
		Variant:     toast.VariantError,
		Dismissible: true,
	})
}

func (h *Handler) writeToast(c *gin.Context, status int, p toast.Props) {
	p.Position = toast.PositionBottomRight
	p.Duration = toastDuration
	p.Icon = true

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := toast.Toast(p).Render(c.Request.Context(), c.Writer); err != nil {
		h.log.Error().Err(err).Msg("render toast")
	}
}
