package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"voxpense/internal/config"
	"voxpense/internal/events"
	"voxpense/internal/export/google"
	applog "voxpense/internal/log"
	"voxpense/internal/storage"
	"voxpense/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration invalid", applog.FieldError, err.Error())
		os.Exit(1)
	}
	if !cfg.ExportEnabled() {
		logger.Error("backup export not configured; set GOOGLE_SPREADSHEET_ID and GOOGLE_CREDENTIALS_FILE")
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("sqlite init failed", applog.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exporter, err := google.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, cfg.GoogleCredentialsFile)
	if err != nil {
		logger.Error("sheets init failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	var consumer worker.Consumer
	if cfg.EventsEnabled() {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("AMQP init failed", applog.FieldError, err.Error())
			os.Exit(1)
		}
		defer client.Close()
		consumer = client
		logger.Info("event consumer enabled", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP not configured, running on sweep timer only")
	}

	w := worker.NewBackupWorker(repo, exporter, consumer, logger, cfg.BackupBatchSize, cfg.BackupInterval)

	// Catch up on anything missed while the worker was down.
	if err := w.ProcessPending(ctx); err != nil {
		logger.Warn("startup sweep failed", applog.FieldError, err.Error())
	}

	logger.Info("starting backup worker",
		"batch_size", cfg.BackupBatchSize,
		"interval", cfg.BackupInterval.String())

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("worker stopped gracefully")
}
