package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cristianadrielbraun/qrframe/web"
)

// Routes registers every endpoint on r. imageMW runs in front of the
// stateless generator and the download. The preview is left out: it only
// re-renders when the barcode inputs of the session change.
func (h *Handler) Routes(r *gin.Engine, imageMW ...gin.HandlerFunc) {
	r.StaticFS("/web/static", http.FS(web.Static()))

	r.GET("/", h.Home)
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	r.GET("/sitemap.xml", h.SitemapXML)

	api := r.Group("/api")
	{
		api.POST("/params", h.UpdateParam)
		api.POST("/logo", h.UploadLogo)
		api.DELETE("/logo", h.RemoveLogo)
		api.POST("/htmx/toast", h.GenericToast)

		api.GET("/qr/preview", h.Preview)

		img := api.Group("/qr", imageMW...)
		img.GET("", h.QRCodeHandler)
		img.GET("/export", h.Export)
	}
}
