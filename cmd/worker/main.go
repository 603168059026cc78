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

	"github.com/kirillkom/invoice-audit/internal/bootstrap"
	"github.com/kirillkom/invoice-audit/internal/config"
	"github.com/kirillkom/invoice-audit/internal/observability/logging"
	"github.com/kirillkom/invoice-audit/internal/observability/metrics"
)

const service = "invoice-audit-worker"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(service, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(service)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeInvoiceReceived(ctx, func(handlerCtx context.Context, invoiceID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		workerMetrics.StartInvoice()
		start := time.Now()
		stats, processErr := app.ProcessUC.ProcessByID(processCtx, invoiceID)
		workerMetrics.FinishInvoice(service, time.Since(start), processErr)
		if processErr != nil {
			return processErr
		}

		workerMetrics.ObserveLineItems(service, stats.LineItems)
		for anomaly, count := range stats.Outcomes {
			workerMetrics.CountOutcomes(service, string(anomaly), count)
		}
		for strategy, count := range stats.RejectedTables {
			workerMetrics.CountRejectedTables(service, string(strategy), count)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
