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

	httpadapter "github.com/wealthdesk/knowledge-service/internal/adapters/http"
	"github.com/wealthdesk/knowledge-service/internal/bootstrap"
	"github.com/wealthdesk/knowledge-service/internal/config"
	"github.com/wealthdesk/knowledge-service/internal/observability/logging"
	"github.com/wealthdesk/knowledge-service/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	serverMetrics := metrics.NewHTTPServerMetrics("api")
	router := httpadapter.NewRouter(app.Retriever, app.IngestUC, app.Repo, serverMetrics, httpadapter.RouterConfig{
		Service:             "api",
		RateLimitRPS:        cfg.APIRateLimitRPS,
		RateLimitBurst:      cfg.APIRateLimitBurst,
		MaxInFlightRequests: cfg.APIMaxInFlight,
		BackpressureTimeout: cfg.APIBackpressureTimeout,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", serverMetrics.Handler())
	mux.Handle("/", router.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_error", "error", err)
	}
}
