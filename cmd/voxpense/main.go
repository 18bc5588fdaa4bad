package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"voxpense/internal/catalog"
	"voxpense/internal/config"
	"voxpense/internal/engine"
	"voxpense/internal/events"
	apphttp "voxpense/internal/http"
	"voxpense/internal/ledger"
	"voxpense/internal/ledger/memory"
	applog "voxpense/internal/log"
	"voxpense/internal/storage"
)

func main() {
	// .env is for local development; missing file is fine.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     logLevel(cfg.LogLevel),
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration invalid", applog.FieldError, err.Error())
		os.Exit(1)
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		logger.Error("catalog load failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	var store ledger.Store
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("sqlite init failed", applog.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		store = repo
		logger.Info("sqlite backend ready", "path", cfg.SQLiteDBPath)
	default:
		store = memory.New()
		logger.Info("memory backend ready")
	}

	opts := []engine.Option{engine.WithRecentLimit(cfg.RecentLimit)}
	if cfg.EventsEnabled() {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("AMQP init failed", applog.FieldError, err.Error())
			os.Exit(1)
		}
		defer client.Close()
		opts = append(opts, engine.WithPublisher(client))
		logger.Info("ledger events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	eng := engine.New(store, cat, logger, opts...)
	srv := apphttp.NewServer(":"+cfg.Port, eng, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", applog.FieldError, err.Error())
		}
		cancel()
	}()

	logger.Info("starting voxpense server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", applog.FieldError, err.Error())
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped")
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogFile != "" {
		return catalog.LoadFile(cfg.CatalogFile)
	}
	return catalog.Default(), nil
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
