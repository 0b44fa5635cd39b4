// Package config loads qrframe settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/cristianadrielbraun/qrframe/internal/qr"
	"github.com/cristianadrielbraun/qrframe/internal/render"
)

// EnvPrefix is prepended to every environment variable, e.g. QRFRAME_SERVER_PORT.
const EnvPrefix = "QRFRAME"

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Logo      LogoConfig      `mapstructure:"logo"`
	Render    RenderConfig    `mapstructure:"render"`
	Session   SessionConfig   `mapstructure:"session"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Defaults  DefaultsConfig  `mapstructure:"defaults"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

type LogoConfig struct {
	// MaxSize is a human readable byte size such as "500KB".
	MaxSize string `mapstructure:"max_size"`
}

// MaxBytes parses MaxSize.
func (l LogoConfig) MaxBytes() (int64, error) {
	n, err := humanize.ParseBytes(l.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("invalid logo.max_size %q: %w", l.MaxSize, err)
	}
	if n == 0 {
		return 0, errors.New("logo.max_size must be positive")
	}
	return int64(n), nil
}

type RenderConfig struct {
	Engine string `mapstructure:"engine"`
}

type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type RateLimitConfig struct {
	// PerMinute is the number of image requests allowed per client; 0 disables limiting.
	PerMinute int `mapstructure:"per_minute"`
	Burst     int `mapstructure:"burst"`
}

// DefaultsConfig is the initial form state of every new page.
type DefaultsConfig struct {
	Size        int    `mapstructure:"size"`
	Level       string `mapstructure:"level"`
	Foreground  string `mapstructure:"foreground"`
	Background  string `mapstructure:"background"`
	Padding     int    `mapstructure:"padding"`
	BorderWidth int    `mapstructure:"border_width"`
	BorderColor string `mapstructure:"border_color"`
	BorderStyle string `mapstructure:"border_style"`
}

// Params converts the configured defaults into a parameter set.
func (d DefaultsConfig) Params() (qr.Params, error) {
	p := qr.Defaults()
	var err error
	if p.Size, err = qr.ParseSize(fmt.Sprint(d.Size)); err != nil {
		return p, fmt.Errorf("defaults.size: %w", err)
	}
	if p.Level, err = qr.ParseECLevel(d.Level); err != nil {
		return p, fmt.Errorf("defaults.level: %w", err)
	}
	if p.Foreground, err = qr.ParseColor(d.Foreground); err != nil {
		return p, fmt.Errorf("defaults.foreground: %w", err)
	}
	if p.Background, err = qr.ParseColor(d.Background); err != nil {
		return p, fmt.Errorf("defaults.background: %w", err)
	}
	if p.BorderColor, err = qr.ParseColor(d.BorderColor); err != nil {
		return p, fmt.Errorf("defaults.border_color: %w", err)
	}
	if p.BorderStyle, err = qr.ParseBorderStyle(d.BorderStyle); err != nil {
		return p, fmt.Errorf("defaults.border_style: %w", err)
	}
	if d.Padding < qr.MinPadding || d.Padding > qr.MaxPadding {
		return p, fmt.Errorf("defaults.padding must be within [%d,%d]", qr.MinPadding, qr.MaxPadding)
	}
	if d.BorderWidth < qr.MinBorderWidth || d.BorderWidth > qr.MaxBorderWidth {
		return p, fmt.Errorf("defaults.border_width must be within [%d,%d]", qr.MinBorderWidth, qr.MaxBorderWidth)
	}
	p.Padding = d.Padding
	p.BorderWidth = d.BorderWidth
	return p, nil
}

func setDefaults(v *viper.Viper) {
	d := qr.Defaults()
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("logo.max_size", "500KB")
	v.SetDefault("render.engine", render.EngineYeqown)
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.sweep_interval", time.Minute)
	v.SetDefault("ratelimit.per_minute", 120)
	v.SetDefault("ratelimit.burst", 20)
	v.SetDefault("defaults.size", int(d.Size))
	v.SetDefault("defaults.level", d.Level.String())
	v.SetDefault("defaults.foreground", qr.HexColor(d.Foreground))
	v.SetDefault("defaults.background", qr.HexColor(d.Background))
	v.SetDefault("defaults.padding", d.Padding)
	v.SetDefault("defaults.border_width", d.BorderWidth)
	v.SetDefault("defaults.border_color", qr.HexColor(d.BorderColor))
	v.SetDefault("defaults.border_style", string(d.BorderStyle))
}

// Load reads configPath when given, otherwise looks for an optional
// qrframe.yaml in the working directory. Environment variables take
// precedence over file values; PORT is honored for platform deployments.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("qrframe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks ranges and enum values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q (want console or json)", c.Log.Format)
	}
	if _, err := c.Logo.MaxBytes(); err != nil {
		return err
	}
	if _, err := render.New(c.Render.Engine); err != nil {
		return err
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	if c.RateLimit.PerMinute < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("ratelimit values must not be negative")
	}
	if _, err := c.Defaults.Params(); err != nil {
		return err
	}
	return nil
}
