package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wealthdesk/knowledge-service/internal/bootstrap"
	"github.com/wealthdesk/knowledge-service/internal/config"
	"github.com/wealthdesk/knowledge-service/internal/observability/logging"
	"github.com/wealthdesk/knowledge-service/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID string) error {
		indexCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		if doc, err := app.Repo.GetByID(indexCtx, documentID); err == nil {
			workerMetrics.ObserveQueueLag("worker", time.Since(doc.CreatedAt))
		}

		workerMetrics.StartDocument()
		start := time.Now()
		err := app.IndexUC.IndexByID(indexCtx, documentID)
		workerMetrics.FinishDocument("worker", time.Since(start), err)
		return err
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
