package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/cristianadrielbraun/qrframe/internal/logo"
	"github.com/cristianadrielbraun/qrframe/internal/metrics"
	"github.com/cristianadrielbraun/qrframe/internal/qr"
	"github.com/cristianadrielbraun/qrframe/internal/render"
	"github.com/cristianadrielbraun/qrframe/internal/state"
	"github.com/cristianadrielbraun/qrframe/web/pages"
)

// SessionCookie names the cookie that ties a browser tab to its page state.
const SessionCookie = "qrframe_session"

// Options are the dependencies of the HTTP handlers.
type Options struct {
	Store    *state.Store
	Renderer render.Renderer
	Loader   *logo.Loader
	Defaults qr.Params
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
	Version  string
}

// Handler holds the dependencies shared by all routes.
type Handler struct {
	store    *state.Store
	renderer render.Renderer
	loader   *logo.Loader
	defaults qr.Params
	metrics  *metrics.Metrics
	log      zerolog.Logger
	version  string
}

// New returns a new Handler instance.
func New(o Options) *Handler {
	if o.Metrics == nil {
		o.Metrics = metrics.New()
	}
	if o.Loader == nil {
		o.Loader = logo.NewLoader(logo.DefaultMaxBytes)
	}
	if o.Version == "" {
		o.Version = "dev"
	}
	return &Handler{
		store:    o.Store,
		renderer: o.Renderer,
		loader:   o.Loader,
		defaults: o.Defaults.Normalize(),
		metrics:  o.Metrics,
		log:      o.Logger,
		version:  o.Version,
	}
}

// session returns the page state of the caller, starting a new one and
// setting the cookie when none is known.
func (h *Handler) session(c *gin.Context) *state.Controller {
	id, _ := c.Cookie(SessionCookie)
	id, ctrl, created := h.store.GetOrCreate(id)
	if created {
		h.metrics.Sessions.Set(float64(h.store.Len()))
		h.log.Debug().Str("session", id).Msg("session started")
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   int(h.store.TTL().Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return ctrl
}

// Home renders the generator page for the caller's session.
func (h *Handler) Home(c *gin.Context) {
	ctrl := h.session(c)
	data := pages.NewHomeData(ctrl.Params(), ctrl.Logo(), ctrl.MaxLogoBytes(), h.version)

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	if err := pages.HomePage(data).Render(c.Request.Context(), c.Writer); err != nil {
		h.log.Error().Err(err).Msg("render home page")
	}
}

// Health reports liveness and the number of open page sessions.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": h.store.Len(),
		"engine":   h.renderer.Name(),
		"version":  h.version,
	})
}

// SitemapXML serves a minimal sitemap for the site.
func (h *Handler) SitemapXML(c *gin.Context) {
	c.Header("Content-Type", "application/xml; charset=utf-8")
	scheme := "https"
	if xf := c.Request.Header.Get("X-Forwarded-Proto"); xf != "" {
		scheme = xf
	} else if c.Request.TLS == nil {
		scheme = "http"
	}
	base := scheme + "://" + c.Request.Host
	xml := "" +
		"<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" +
		"<urlset xmlns=\"http://www.sitemaps.org/schemas/sitemap/0.9\">\n" +
		"  <url>\n" +
		"    <loc>" + base + "/" + "</loc>\n" +
		"    <changefreq>monthly</changefreq>\n" +
		"    <priority>1.0</priority>\n" +
		"  </url>\n" +
		"</urlset>\n"
	c.String(http.StatusOK, xml)
}
