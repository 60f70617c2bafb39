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

	"github.com/beedev/recommender/internal/bootstrap"
	"github.com/beedev/recommender/internal/config"
	"github.com/beedev/recommender/internal/observability/logging"
)

// The indexer ingests the catalog workbook once at startup, then stays
// subscribed for reindex requests published over NATS.
func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("indexer", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "indexer", logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.IndexerMetricsPort,
		Handler: app.IndexerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if cfg.CatalogWorkbook != "" {
		if err := app.Ingestor.IngestWorkbook(ctx, cfg.CatalogWorkbook); err != nil {
			logger.Error("initial_ingest_failed", "workbook", cfg.CatalogWorkbook, "error", err)
		}
	}

	logger.Info("indexer_subscribed", "subject", cfg.NATSReindexSubject)
	err = app.Queue.SubscribeReindexRequested(ctx, func(handlerCtx context.Context, workbook string) error {
		ingestCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()
		return app.Ingestor.IngestWorkbook(ingestCtx, workbook)
	})
	if err != nil {
		logger.Error("indexer_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
