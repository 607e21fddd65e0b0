package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jdarling/eventdash/internal/adapters/http/api"
	"github.com/jdarling/eventdash/internal/adapters/http/swagger"
	"github.com/jdarling/eventdash/internal/app"
	"github.com/jdarling/eventdash/internal/config"
	"github.com/jdarling/eventdash/internal/domain/alerting"
	"github.com/jdarling/eventdash/internal/gateway"
	"github.com/jdarling/eventdash/internal/realtime"
	"github.com/jdarling/eventdash/internal/session"
	"github.com/jdarling/eventdash/pkg/logger"
	"github.com/jdarling/eventdash/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Disable default Go metrics collection; the service registers its own
	// families on a custom registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	upstream := gateway.New(cfg.UpstreamBaseURL,
		gateway.WithTimeout(time.Duration(cfg.UpstreamTimeoutMS)*time.Millisecond),
		gateway.WithSession(session.Session{Token: cfg.SessionToken}),
	)

	opts := []app.Option{
		app.WithLogger(loggerInstance),
		app.WithUpstream(upstream),
		app.WithCacheTTL(time.Duration(cfg.CacheTTLMS) * time.Millisecond),
		app.WithPollInterval(time.Duration(cfg.DangerZonePollMS) * time.Millisecond),
		app.WithQueueSize(cfg.RefreshQueueSize),
		app.WithWorkerCount(cfg.RefreshWorkerCount),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithTopProductsLimit(cfg.TopProductsLimit),
		app.WithAlertRules(alerting.Rules{
			ConversionThreshold: cfg.MinConversionRate,
			InstrumentStock:     cfg.InstrumentStock,
		}),
	}
	if cfg.RealtimeURL != "" {
		opts = append(opts, app.WithRealtime(realtime.NewWebsocketSubscriber(cfg.RealtimeURL)))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// HTTP mux and routes.
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)
	api.NewServer(svc).Register(ctx, mux)
	mux.Handle("GET /metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}
