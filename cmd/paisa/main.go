package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"paisa/internal/amqp"
	"paisa/internal/config"
	apphttp "paisa/internal/http"
	"paisa/internal/ledger"
	"paisa/internal/log"
	"paisa/internal/notify"
	"paisa/internal/services"
	"paisa/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

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

	// Rehydrate the ledger from the last persisted snapshot. A missing
	// snapshot means a fresh install and an empty state tree.
	snap, err := repo.LoadSnapshot(context.Background(), storage.SnapshotKey)
	if err != nil {
		logger.Error("Failed to load snapshot", "error", err)
		os.Exit(1)
	}
	store := ledger.NewStore(snap)

	// AMQP is optional: without it, exports wait for the worker's periodic
	// sweep and reminders degrade to log lines.
	var (
		nudger    services.ExportNudger
		scheduler notify.Scheduler
	)
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPExportQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without nudges", "error", err)
		} else {
			defer amqpClient.Close()
			nudger = amqpClient

			reminderClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPReminderQueue)
			if err != nil {
				logger.Warn("Failed to open reminder queue, reminders degrade to logs", "error", err)
			} else {
				defer reminderClient.Close()
				scheduler = notify.NewAMQPScheduler(reminderClient)
			}
			logger.Info("AMQP client initialized",
				"exchange", cfg.AMQPExchange,
				"export_queue", cfg.AMQPExportQueue,
				"reminder_queue", cfg.AMQPReminderQueue)
		}
	} else {
		logger.Info("AMQP disabled - exports rely on the worker sweep")
	}

	svc := services.NewLedgerService(store, repo, nudger, scheduler)

	srv := apphttp.NewServer(":"+cfg.Port, svc)
	srv.Handler = log.Middleware(logger)(srv.Handler)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting paisa server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
