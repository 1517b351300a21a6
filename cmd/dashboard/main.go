package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/radiance-dashboard/internal/adapter/backend"
	"github.com/couchcryptid/radiance-dashboard/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/radiance-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/radiance-dashboard/internal/config"
	"github.com/couchcryptid/radiance-dashboard/internal/dashboard"
	"github.com/couchcryptid/radiance-dashboard/internal/domain"
	"github.com/couchcryptid/radiance-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	limiter := rate.NewLimiter(rate.Limit(cfg.BackendRPS), cfg.BackendBurst)
	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, limiter, logger, metrics)
	breaker := backend.NewBreaker(client, backend.DefaultBreakerSettings(), logger, metrics)
	source := backend.NewCachedSource(breaker, cfg.CacheSize, cfg.CacheTTL, clockwork.NewRealClock(), metrics)
	logger.Info("backend configured", "url", cfg.BackendURL, "cache_size", cfg.CacheSize, "cache_ttl", cfg.CacheTTL)

	// Selection events are feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher dashboard.EventPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger, metrics)
		publisher = writer
		logger.Info("selection events enabled", "topic", cfg.KafkaSelectionTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("selection events disabled")
	}

	metric, ok := domain.ParseMetric(cfg.DefaultMetric)
	if !ok {
		logger.Warn("unknown default metric, using fallback", "metric", cfg.DefaultMetric, "fallback", domain.DefaultMetric)
		metric = domain.DefaultMetric
	}

	store := dashboard.NewStore(metric)
	loader := dashboard.NewLoader(source, store, publisher, dashboard.LoaderConfig{
		SeriesConcurrency: cfg.SeriesConcurrency,
		ComparisonTop:     cfg.ComparisonTop,
		RefreshInterval:   cfg.RefreshInterval,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, loader, httpadapter.Options{RateLimit: cfg.APIRateLimit}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Initial load, then periodic refresh. A failed init leaves the error
	// banner in place and the service not ready.
	go func() {
		if err := loader.Init(ctx); err != nil {
			logger.Error("initial load failed", "error", err)
			return
		}
		if err := loader.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("refresh loop error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
