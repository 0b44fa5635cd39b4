// qrframe serves a single-page QR code generator with framing options and
// renders the same images from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cristianadrielbraun/qrframe/internal/config"
	"github.com/cristianadrielbraun/qrframe/internal/handlers"
	"github.com/cristianadrielbraun/qrframe/internal/logging"
	"github.com/cristianadrielbraun/qrframe/internal/logo"
	"github.com/cristianadrielbraun/qrframe/internal/metrics"
	"github.com/cristianadrielbraun/qrframe/internal/middleware"
	"github.com/cristianadrielbraun/qrframe/internal/qr"
	"github.com/cristianadrielbraun/qrframe/internal/render"
	"github.com/cristianadrielbraun/qrframe/internal/state"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const shutdownTimeout = 10 * time.Second

type rootOptions struct {
	cfgFile  string
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "qrframe",
		Short: "QR code generator with padding, borders and logos",
		Long: `qrframe serves a single page where a QR code is configured and previewed
live, then downloaded as qrcode.png with padding and a styled border.

Running without a subcommand starts the server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file path (default ./qrframe.yaml if present)")
	rootCmd.PersistentFlags().StringVarP(&opts.logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "qrframe %s\n", Version)
			fmt.Fprintf(out, "  Commit:     %s\n", Commit)
			fmt.Fprintf(out, "  Build Time: %s\n", BuildTime)
		},
	}

	rootCmd.AddCommand(serveCmd, newRenderCmd(opts), versionCmd)
	return rootCmd
}

// loadConfig reads the configuration and applies the --log-level override.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	return cfg, nil
}

// app is the wiring shared by the server and the render command.
type app struct {
	defaults qr.Params
	loader   *logo.Loader
	renderer render.Renderer
	newCtrl  func() *state.Controller
}

func newApp(cfg *config.Config, m *metrics.Metrics) (*app, error) {
	maxBytes, err := cfg.Logo.MaxBytes()
	if err != nil {
		return nil, err
	}
	renderer, err := render.New(cfg.Render.Engine)
	if err != nil {
		return nil, err
	}
	if m != nil {
		renderer = m.Renderer(renderer)
	}
	defaults, err := cfg.Defaults.Params()
	if err != nil {
		return nil, err
	}

	a := &app{defaults: defaults, loader: logo.NewLoader(maxBytes), renderer: renderer}
	a.newCtrl = func() *state.Controller {
		return state.NewController(a.defaults, a.loader, a.renderer)
	}
	return a, nil
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	m := metrics.New()
	a, err := newApp(cfg, m)
	if err != nil {
		return err
	}
	store := state.NewStore(a.newCtrl, cfg.Session.TTL)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	var imageMW []gin.HandlerFunc
	if cfg.RateLimit.PerMinute > 0 {
		rl := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, 10*time.Minute)
		go rl.CleanupLoop(ctx)
		imageMW = append(imageMW, middleware.RateLimit(rl))
	}

	h := handlers.New(handlers.Options{
		Store:    store,
		Renderer: a.renderer,
		Loader:   a.loader,
		Defaults: a.defaults,
		Metrics:  m,
		Logger:   logger,
		Version:  Version,
	})
	h.Routes(r, imageMW...)

	go store.Run(ctx, cfg.Session.SweepInterval, func(removed, live int) {
		m.Sessions.Set(float64(live))
		if removed > 0 {
			logger.Debug().Int("removed", removed).Int("live", live).Msg("expired sessions swept")
		}
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info().
		Str("addr", srv.Addr).
		Str("engine", a.renderer.Name()).
		Str("logo_max", a.loader.HumanMax()).
		Str("version", Version).
		Msg("qrframe listening")

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
