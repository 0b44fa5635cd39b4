package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianadrielbraun/qrframe/internal/qr"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qrframe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "yeqown", cfg.Render.Engine)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 120, cfg.RateLimit.PerMinute)

	maxBytes, err := cfg.Logo.MaxBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(500_000), maxBytes)

	p, err := cfg.Defaults.Params()
	require.NoError(t, err)
	assert.Equal(t, qr.Defaults(), p)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9090
log:
  level: debug
  format: json
logo:
  max_size: 1MB
render:
  engine: skip2
session:
  ttl: 5m
defaults:
  size: 384
  level: H
  padding: 0
  border_width: 10
  border_style: double
  border_color: "#000000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr())
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "skip2", cfg.Render.Engine)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL)

	maxBytes, err := cfg.Logo.MaxBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), maxBytes)

	p, err := cfg.Defaults.Params()
	require.NoError(t, err)
	assert.Equal(t, qr.SizeLarge, p.Size)
	assert.Equal(t, qr.LevelHigh, p.Level)
	assert.Equal(t, 0, p.Padding)
	assert.Equal(t, 10, p.BorderWidth)
	assert.Equal(t, qr.BorderDouble, p.BorderStyle)
	// Unset keys keep their defaults.
	assert.Equal(t, "#ffffff", qr.HexColor(p.Background))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("QRFRAME_LOG_LEVEL", "warn")
	t.Setenv("QRFRAME_LOGO_MAX_SIZE", "250KB")
	t.Setenv("PORT", "3000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 3000, cfg.Server.Port)

	maxBytes, err := cfg.Logo.MaxBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(250_000), maxBytes)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/qrframe.yaml")
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad port", content: "server:\n  port: 70000\n"},
		{name: "bad format", content: "log:\n  format: xml\n"},
		{name: "bad logo size", content: "logo:\n  max_size: huge\n"},
		{name: "bad engine", content: "render:\n  engine: zxing\n"},
		{name: "bad default size", content: "defaults:\n  size: 300\n"},
		{name: "bad default padding", content: "defaults:\n  padding: 101\n"},
		{name: "bad default style", content: "defaults:\n  border_style: groove\n"},
		{name: "invalid yaml", content: "server: [oops\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
