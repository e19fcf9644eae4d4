package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"paisa/internal/config"
	"paisa/internal/ledger"
	"paisa/internal/log"
	"paisa/internal/notify"
	"paisa/internal/services"
	"paisa/internal/storage"
	"paisa/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentReminder)
	log.SetDefault(logger)

	logger.Info("Starting reminder-worker")

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

	snap, err := repo.LoadSnapshot(context.Background(), storage.SnapshotKey)
	if err != nil {
		logger.Error("Failed to load snapshot", "error", err)
		os.Exit(1)
	}
	store := ledger.NewStore(snap)

	// The reminder worker only reads the ledger and appends notifications;
	// it never enqueues exports, so no AMQP nudger is wired.
	svc := services.NewLedgerService(store, repo, nil, notify.LogScheduler{})

	reminderWorker := worker.NewReminderWorker(svc, cfg.ReminderCron)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := reminderWorker.Start(ctx); err != nil {
		logger.Error("Failed to start reminder worker", "error", err)
		os.Exit(1)
	}
	logger.Info("Reminder worker running", "cron", cfg.ReminderCron)

	<-ctx.Done()
	reminderWorker.Stop()
	logger.Info("Reminder worker stopped gracefully")
}
