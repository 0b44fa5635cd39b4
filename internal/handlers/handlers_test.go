package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianadrielbraun/qrframe/internal/logo"
	"github.com/cristianadrielbraun/qrframe/internal/metrics"
	"github.com/cristianadrielbraun/qrframe/internal/middleware"
	"github.com/cristianadrielbraun/qrframe/internal/qr"
	"github.com/cristianadrielbraun/qrframe/internal/render"
	"github.com/cristianadrielbraun/qrframe/internal/state"
)

const testCeiling = 4000

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	store  *state.Store
	cookie *http.Cookie
}

func newTestServer(t *testing.T, imageMW ...gin.HandlerFunc) *testServer {
	t.Helper()
	renderer, err := render.New(render.EngineYeqown)
	require.NoError(t, err)

	loader := logo.NewLoader(testCeiling)
	defaults := qr.Defaults()
	store := state.NewStore(func() *state.Controller {
		return state.NewController(defaults, loader, renderer)
	}, time.Minute)

	h := New(Options{
		Store:    store,
		Renderer: renderer,
		Loader:   loader,
		Defaults: defaults,
		Metrics:  metrics.New(),
		Logger:   zerolog.Nop(),
		Version:  "test",
	})
	r := gin.New()
	h.Routes(r, imageMW...)
	return &testServer{t: t, engine: r, store: store}
}

// do sends req with the session cookie of earlier responses.
func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	s.t.Helper()
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			s.cookie = c
		}
	}
	return rec
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (s *testServer) setField(field, value string) *httptest.ResponseRecorder {
	form := url.Values{"field": {field}, "value": {value}}
	req := httptest.NewRequest(http.MethodPost, "/api/params", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func (s *testServer) uploadLogo(name string, data []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("logo", name)
	require.NoError(s.t, err)
	_, err = part.Write(data)
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/logo", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req)
}

func logoPNG(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.LessOrEqual(t, buf.Len(), size)
	out := make([]byte, size)
	copy(out, buf.Bytes())
	return out
}

func decodeSize(t *testing.T, body []byte) (int, int) {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestHome_StartsSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "The QR code will appear here")
	require.NotNil(t, s.cookie)
	assert.True(t, s.cookie.HttpOnly)
	assert.Equal(t, 1, s.store.Len())

	rec = s.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, 1, s.store.Len())
}

func TestUpdateParam(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNoContent, s.setField("size", "128").Code)
	assert.Equal(t, http.StatusNoContent, s.setField("padding", "250").Code)
	assert.Equal(t, http.StatusBadRequest, s.setField("shape", "round").Code)
	assert.Equal(t, http.StatusBadRequest, s.setField("fg", "red").Code)

	rec := s.get("/")
	assert.Contains(t, rec.Body.String(), `<option value="128" selected>`)
	assert.Contains(t, rec.Body.String(), `value="100"`)
}

func TestPreview(t *testing.T) {
	s := newTestServer(t)

	rec := s.get("/api/qr/preview")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	require.Equal(t, http.StatusNoContent, s.setField("text", "https://example.com").Code)
	rec = s.get("/api/qr/preview")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	w, h := decodeSize(t, rec.Body.Bytes())
	assert.Equal(t, 256+2*20+2*2, w)
	assert.Equal(t, w, h)

	// The preview shows the frame the download will have.
	require.Equal(t, http.StatusNoContent, s.setField("padding", "0").Code)
	require.Equal(t, http.StatusNoContent, s.setField("borderWidth", "8").Code)
	require.Equal(t, http.StatusNoContent, s.setField("borderColor", "#00ff00").Code)
	rec = s.get("/api/qr/preview")
	require.Equal(t, http.StatusOK, rec.Code)
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 256+2*8, img.Bounds().Dx())
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, color.RGBAModel.Convert(img.At(3, 100)))

	export := s.get("/api/qr/export")
	require.Equal(t, http.StatusOK, export.Code)
	assert.Equal(t, rec.Body.Bytes(), export.Body.Bytes())

	// Clearing the text hides the preview again.
	require.Equal(t, http.StatusNoContent, s.setField("text", "").Code)
	assert.Equal(t, http.StatusNoContent, s.get("/api/qr/preview").Code)
}

func TestExport_EmptyText(t *testing.T) {
	s := newTestServer(t)

	rec := s.get("/api/qr/export")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Please enter text first")
	assert.Contains(t, rec.Body.String(), `data-variant="error"`)
}

func TestExport_PNG(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusNoContent, s.setField("text", "hello").Code)
	require.Equal(t, http.StatusNoContent, s.setField("borderStyle", "double").Code)
	require.Equal(t, http.StatusNoContent, s.setField("borderWidth", "6").Code)

	rec := s.get("/api/qr/export")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="qrcode.png"`, rec.Header().Get("Content-Disposition"))

	w, h := decodeSize(t, rec.Body.Bytes())
	assert.Equal(t, 256+2*20+2*6, w)
	assert.Equal(t, w, h)

	body := s.get("/metrics").Body.String()
	assert.Contains(t, body, `qrframe_exports_total{format="png"} 1`)
}

func TestExport_JPG(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusNoContent, s.setField("text", "hello").Code)

	rec := s.get("/api/qr/export?format=jpg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="qrcode.jpg"`, rec.Header().Get("Content-Disposition"))
	_, err := jpeg.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
}

func TestQRCodeHandler(t *testing.T) {
	s := newTestServer(t)

	rec := s.get("/api/qr")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "text parameter is required", body["error"])

	rec = s.get("/api/qr?text=hi&size=128&padding=0&borderWidth=0&fg=%23ff0000")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, color.RGBAModel.Convert(img.At(1, 1)))

	// Invalid values fall back to defaults.
	rec = s.get("/api/qr?text=hi&size=999&padding=abc")
	require.Equal(t, http.StatusOK, rec.Code)
	w, _ := decodeSize(t, rec.Body.Bytes())
	assert.Equal(t, 256+2*20+2*2, w)
}

func TestUploadLogo_Ceiling(t *testing.T) {
	s := newTestServer(t)

	rec := s.uploadLogo("exact.png", logoPNG(t, testCeiling))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Remove logo")
	assert.Contains(t, rec.Body.String(), "exact.png")

	rec = s.uploadLogo("over.png", logoPNG(t, testCeiling+1))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "Logo file must be smaller than 4.0 kB")

	// The earlier logo is still in place.
	page := s.get("/").Body.String()
	assert.Contains(t, page, "exact.png")
	assert.NotContains(t, page, "over.png")
}

func TestUploadLogo_Unsupported(t *testing.T) {
	s := newTestServer(t)

	rec := s.uploadLogo("notes.txt", []byte("just some text"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unsupported logo format")
	assert.NotContains(t, s.get("/").Body.String(), "Remove logo")
}

func TestUploadLogo_Missing(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/logo", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	assert.Equal(t, http.StatusBadRequest, s.do(req).Code)
}

func TestRemoveLogo(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.uploadLogo("brand.png", logoPNG(t, 1000)).Code)
	require.Equal(t, http.StatusNoContent, s.setField("text", "hello").Code)
	require.Equal(t, http.StatusOK, s.get("/api/qr/preview").Code)

	rec := s.do(httptest.NewRequest(http.MethodDelete, "/api/logo", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="logo-field"`)
	assert.NotContains(t, rec.Body.String(), "Remove logo")
	assert.Equal(t, http.StatusOK, s.get("/api/qr/preview").Code)
}

func TestGenericToast(t *testing.T) {
	s := newTestServer(t)
	form := url.Values{"title": {"Success"}, "description": {"Downloaded"}, "variant": {"success"}, "dismissible": {"on"}}
	req := httptest.NewRequest(http.MethodPost, "/api/htmx/toast", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := s.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Downloaded")
	assert.Contains(t, rec.Body.String(), `data-variant="success"`)
	assert.Contains(t, rec.Body.String(), `data-duration="2000"`)
	assert.Contains(t, rec.Body.String(), "data-toast-dismiss")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, render.EngineYeqown, body["engine"])
}

func TestSitemap(t *testing.T) {
	s := newTestServer(t)
	rec := s.get("/sitemap.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<loc>http://example.com/</loc>")
}

func TestStaticAssets(t *testing.T) {
	s := newTestServer(t)
	rec := s.get("/web/static/app.js")
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "/api/qr/export")
}

func TestImageRoutes_RateLimited(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 1, time.Minute)
	s := newTestServer(t, middleware.RateLimit(rl))

	assert.Equal(t, http.StatusOK, s.get("/api/qr?text=a").Code)
	rec := s.get("/api/qr?text=b")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusTooManyRequests, s.get("/api/qr/export").Code)

	// Form updates and preview refreshes are not limited.
	assert.Equal(t, http.StatusNoContent, s.setField("text", "x").Code)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, s.get("/api/qr/preview").Code)
	}
}
