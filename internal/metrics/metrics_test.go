package metrics

import (
	"errors"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianadrielbraun/qrframe/internal/qr"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.Exports.WithLabelValues("png").Inc()
	m.Exports.WithLabelValues("png").Inc()
	m.Rejections.WithLabelValues("logo_too_large").Inc()
	m.Sessions.Set(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Exports.WithLabelValues("png")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues("logo_too_large")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Sessions))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Renders.WithLabelValues("yeqown", "ok").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `qrframe_renders_total{engine="yeqown",result="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

type stubRenderer struct{ err error }

func (s stubRenderer) Name() string { return "stub" }

func (s stubRenderer) Render(p qr.Params, _ image.Image) (image.Image, error) {
	if s.err != nil {
		return nil, s.err
	}
	return image.NewRGBA(image.Rect(0, 0, int(p.Size), int(p.Size))), nil
}

func TestMetrics_Renderer(t *testing.T) {
	m := New()
	p := qr.Defaults()
	p.Text = "hello"

	r := m.Renderer(stubRenderer{})
	assert.Equal(t, "stub", r.Name())
	_, err := r.Render(p, nil)
	require.NoError(t, err)

	_, err = m.Renderer(stubRenderer{err: errors.New("boom")}).Render(p, nil)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Renders.WithLabelValues("stub", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Renders.WithLabelValues("stub", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RenderDuration))
}
