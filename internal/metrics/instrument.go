package metrics

import (
	"image"
	"time"

	"github.com/cristianadrielbraun/qrframe/internal/qr"
	"github.com/cristianadrielbraun/qrframe/internal/render"
)

type instrumented struct {
	next render.Renderer
	m    *Metrics
}

// Renderer wraps r so every call is counted and timed.
func (m *Metrics) Renderer(r render.Renderer) render.Renderer {
	return &instrumented{next: r, m: m}
}

func (i *instrumented) Name() string { return i.next.Name() }

func (i *instrumented) Render(p qr.Params, logo image.Image) (image.Image, error) {
	start := time.Now()
	img, err := i.next.Render(p, logo)
	i.m.RenderDuration.WithLabelValues("render").Observe(time.Since(start).Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	i.m.Renders.WithLabelValues(i.next.Name(), result).Inc()
	return img, err
}

// ObserveCompose records the time spent framing and encoding an export.
func (m *Metrics) ObserveCompose(start time.Time) {
	m.RenderDuration.WithLabelValues("compose").Observe(time.Since(start).Seconds())
}
