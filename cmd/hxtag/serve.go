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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/pthm/hxtag/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the hxtag HTTP server.

The server will:
  - Load configuration from the specified YAML file
  - Register the declared components and their routes
  - Serve every page under pages_dir with its component tags resolved
  - Expose Prometheus metrics when metrics.enabled is set

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  hxtag serve -c hxtag.yaml
  hxtag serve --config /etc/hxtag/hxtag.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(os.Stderr, cfg.Dev)

	var promReg *prometheus.Registry
	if cfg.Metrics.Enabled {
		promReg = prometheus.NewRegistry()
		promReg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	a, err := buildApp(cfg, logger, registerer(promReg))
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}
	logger.Info("config loaded",
		"components", a.registry.Len(),
		"routes", a.registry.Routes().Len(),
		"pages", len(a.pages),
		"fragments", a.router.Fragments() != nil,
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(a, promReg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Addr, "dev", cfg.Dev)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout.Duration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown timed out",
			"timeout", timeout.String(),
			"error", err,
		)
		return nil
	}
	logger.Info("shutdown complete")
	return nil
}

// registerer avoids handing buildApp a typed nil interface.
func registerer(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return nil
	}
	return reg
}

// newHandler wraps the hxtag router with request ids, real client IPs and
// panic recovery, and mounts the metrics endpoint when promReg is set.
func newHandler(a *app, promReg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if promReg != nil {
		r.Handle(a.cfg.Metrics.Path, promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	}
	r.Handle("/*", a.router)
	return r
}
