package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/reservoir-levels-service/internal/adapter/eydap"
	httpadapter "github.com/couchcryptid/reservoir-levels-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/reservoir-levels-service/internal/adapter/kafka"
	"github.com/couchcryptid/reservoir-levels-service/internal/config"
	"github.com/couchcryptid/reservoir-levels-service/internal/observability"
	"github.com/couchcryptid/reservoir-levels-service/internal/pipeline"
)

const (
	warmupInitialBackoff = 5 * time.Second
	warmupMaxBackoff     = 5 * time.Minute
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := eydap.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout, metrics, logger)
	orch := pipeline.NewOrchestrator(client, cfg.FetchConcurrency, cfg.Location, logger)

	// Snapshot publishing is feature-flagged via KAFKA_ENABLED.
	var (
		publisher pipeline.Publisher
		writer    *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka snapshot publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSeriesTopic)
	} else {
		logger.Info("kafka snapshot publishing disabled")
	}

	svc := pipeline.NewService(orch, pipeline.NewSeriesCache(), publisher, pipeline.ServiceConfig{
		MaxYears: cfg.MaxYears,
		Location: cfg.Location,
	}, logger, metrics)

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:         cfg.HTTPAddr,
		WriteTimeout: cfg.HTTPWriteTimeout,
		DefaultYears: cfg.DefaultYears,
	}, svc, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Warm the default depth so /readyz turns green without waiting for a client.
	go warmUp(ctx, svc, cfg.DefaultYears, logger)

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

// warmUp loads years until one attempt succeeds, backing off between failures.
func warmUp(ctx context.Context, svc *pipeline.Service, years int, logger *slog.Logger) {
	backoff := warmupInitialBackoff
	for {
		_, err := svc.Load(ctx, years, pipeline.LoadOptions{})
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		logger.Warn("warm-up load failed, retrying", "years", years, "error", err, "backoff", backoff)
		if !retry.SleepWithContext(ctx, backoff) {
			return
		}
		backoff = retry.NextBackoff(backoff, warmupMaxBackoff)
	}
}
