package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/paperledger/docpipe/internal/bootstrap"
	"github.com/paperledger/docpipe/internal/config"
	"github.com/paperledger/docpipe/internal/observability/logging"
	"github.com/paperledger/docpipe/internal/observability/metrics"
)

const serviceName = "docpipe-worker"

var errFailedDocument = errors.New("document processing failed")

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsMux(workerMetrics),
	}
	go func() {
		logger.Info("metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentScanned(ctx, func(handlerCtx context.Context, documentID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		workerMetrics.StartDocument()
		start := time.Now()
		result := app.ProcessUC.ProcessByID(processCtx, documentID)

		var processErr error
		if !result.Success {
			processErr = errFailedDocument
		}
		workerMetrics.FinishDocument(serviceName, time.Since(start), processErr)
		if result.Routing != nil {
			workerMetrics.RecordRouted(serviceName, string(result.Routing.Destination))
		}
		if result.PaymentConsensus != nil {
			workerMetrics.RecordConsensus(serviceName, string(result.PaymentConsensus.Status), result.PaymentConsensus.ConsensusReached)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

func metricsMux(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}
