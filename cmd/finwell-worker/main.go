package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finwell/internal/amqp"
	"finwell/internal/backend"
	"finwell/internal/cli"
	"finwell/internal/config"
	"finwell/internal/log"
	"finwell/internal/worker"
)

const sweepInterval = 10 * time.Minute

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting finwell-worker")
	cli.MustValidate(logger, cfg.ValidateWorker)

	ctx, stop := cli.SignalContext()
	defer stop()

	exporter, err := backend.NewExporter(ctx, cfg, logger.WithComponent(log.ComponentSheets).Logger)
	if err != nil {
		logger.Error("Failed to initialize exporter", "error", err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	m := cli.NewMetrics(cfg)
	exportWorker := worker.NewExportWorker(exporter, m)

	g, gctx := errgroup.WithContext(ctx)
	if m != nil {
		metricsSrv := &http.Server{
			Addr:              cfg.WorkerMetricsAddr,
			Handler:           m.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Serving worker metrics", "addr", cfg.WorkerMetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		return client.ConsumeTransactionEvents(gctx, exportWorker.HandleEvent)
	})
	g.Go(func() error {
		return exportWorker.SweepLoop(gctx, sweepInterval)
	})

	logger.Info("Consuming transaction events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
