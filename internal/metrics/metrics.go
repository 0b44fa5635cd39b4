// Package metrics exposes Prometheus counters for rendering, exports and
// rejected uploads.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors registered on one registry.
type Metrics struct {
	Registry *prometheus.Registry

	Renders        *prometheus.CounterVec
	RenderDuration *prometheus.HistogramVec
	Exports        *prometheus.CounterVec
	Rejections     *prometheus.CounterVec
	Sessions       prometheus.Gauge
}

// New creates the collectors on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qrframe",
			Name:      "renders_total",
			Help:      "QR rasters rendered, by engine and result.",
		}, []string{"engine", "result"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "qrframe",
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering and composing images.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"kind"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qrframe",
			Name:      "exports_total",
			Help:      "Composed images downloaded, by format.",
		}, []string{"format"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qrframe",
			Name:      "rejections_total",
			Help:      "User actions refused with a notification, by reason.",
		}, []string{"reason"}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "qrframe",
			Name:      "sessions",
			Help:      "Live page sessions.",
		}),
	}
	m.Registry.MustRegister(
		m.Renders,
		m.RenderDuration,
		m.Exports,
		m.Rejections,
		m.Sessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
