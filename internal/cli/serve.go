package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/foldtable/internal/config"
	httpAdapter "github.com/aretw0/foldtable/pkg/adapters/http"
	"github.com/aretw0/foldtable/pkg/metrics"
	"github.com/aretw0/foldtable/pkg/reducer"
	"github.com/aretw0/foldtable/pkg/stream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServeOptions configures the HTTP server.
type ServeOptions struct {
	Port    string
	Metrics bool
}

// NewHTTPServer wires rules, store, metrics and routes into an http.Server.
// The returned App must be closed by the caller.
func NewHTTPServer(cfg *config.Config, opts Options, serveOpts ServeOptions) (*http.Server, *App, error) {
	var (
		extra   []reducer.Option
		handler []httpAdapter.Option
	)
	if serveOpts.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector := metrics.New(reg)
		extra = append(extra, reducer.WithHooks(collector.Hooks()))
		handler = append(handler, httpAdapter.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	app, err := NewApp(cfg, opts, extra...)
	if err != nil {
		return nil, nil, err
	}

	broadcaster := httpAdapter.NewBroadcaster(app.Logger)
	mgr, err := app.NewManager(stream.WithObserver(broadcaster.Observe))
	if err != nil {
		_ = app.Close()
		return nil, nil, err
	}

	handler = append(handler,
		httpAdapter.WithBroadcaster(broadcaster),
		httpAdapter.WithSanitizer(app.Sanitizer),
		httpAdapter.WithLogger(app.Logger),
	)

	port := serveOpts.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpAdapter.NewHandler(mgr, app.Keys(), handler...),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv, app, nil
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, cfg *config.Config, opts Options, serveOpts ServeOptions) error {
	srv, app, err := NewHTTPServer(cfg, opts, serveOpts)
	if err != nil {
		return err
	}
	defer app.Close()

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		app.Logger.Info("Starting foldtable server",
			"address", srv.Addr,
			"rules", opts.RulesPath,
			"store", cfg.Store,
			"metrics", serveOpts.Metrics,
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		app.Logger.Info("Start shutdown...", "reason", StopReason(ctx))

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		app.Logger.Info("foldtable server stopped gracefully")
		return nil
	}
}
