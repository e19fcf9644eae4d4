package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"paisa/internal/amqp"
	"paisa/internal/config"
	"paisa/internal/export"
	"paisa/internal/export/google"
	"paisa/internal/export/memory"
	"paisa/internal/log"
	"paisa/internal/storage"
	"paisa/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentExport)
	log.SetDefault(logger)

	logger.Info("Starting paisa-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var exporter export.RowExporter
	switch cfg.ExportBackend {
	case "sheets":
		client, err := google.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export backend initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	default:
		exporter = memory.New()
		logger.Info("Memory export backend initialized")
	}

	exportWorker := worker.NewExportWorker(repo, exporter,
		cfg.ExportBatchSize, cfg.ExportMaxAttempts, cfg.ExportRetention)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// The sweep drains pending rows on a timer; it also covers rows whose
	// nudge was lost or that failed a previous attempt.
	g.Go(func() error {
		return exportWorker.RunSweep(ctx, cfg.ExportInterval)
	})

	// AMQP nudges wake the worker as soon as a row is enqueued.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPExportQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, running sweep-only", "error", err)
		} else {
			defer amqpClient.Close()
			g.Go(func() error {
				return amqpClient.ConsumeExports(ctx, func(msg *amqp.ExportMessage) error {
					return exportWorker.HandleExportMessage(ctx, msg)
				})
			})
			logger.Info("Consuming export nudges", "queue", cfg.AMQPExportQueue)
		}
	} else {
		logger.Info("AMQP disabled - running sweep-only")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
