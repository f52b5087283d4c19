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

	"github.com/kirillkom/invoice-autofill/internal/bootstrap"
	"github.com/kirillkom/invoice-autofill/internal/config"
	"github.com/kirillkom/invoice-autofill/internal/observability/logging"
	"github.com/kirillkom/invoice-autofill/internal/observability/metrics"
)

const actionTimeout = 3 * time.Minute

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	app, err := bootstrap.New(ctx, cfg, workerMetrics)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	bus, err := bootstrap.ConnectBus(cfg)
	if err != nil {
		logger.Error("bus_connect_failed", "error", err)
		os.Exit(1)
	}
	defer bus.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject, "metrics_port", cfg.WorkerMetricsPort)
	err = bus.Serve(ctx, func(handlerCtx context.Context, payload []byte) []byte {
		workerMetrics.StartRequest()
		defer workerMetrics.FinishRequest()

		actionCtx, cancel := context.WithTimeout(handlerCtx, actionTimeout)
		defer cancel()
		return app.Dispatcher.Dispatch(actionCtx, payload)
	})
	if err != nil {
		logger.Error("worker_serve_failed", "error", err)
	}
}
