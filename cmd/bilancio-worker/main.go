package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bilancio/internal/amqp"
	"bilancio/internal/config"
	"bilancio/internal/export/google"
	applog "bilancio/internal/log"
	"bilancio/internal/storage"
	"bilancio/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: "bilancio-worker"})
	applog.SetDefault(logger)

	logger.Info("Starting bilancio-worker")

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

	var exporter *google.Exporter
	if cfg.SheetsExportEnabled() {
		exporter, err = google.NewExporter(context.Background(), google.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleCredentialsFile,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", "error", err)
			os.Exit(1)
		}
		logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var syncWorker *worker.SyncWorker
	if exporter != nil {
		syncWorker = worker.NewSyncWorker(repo, exporter, cfg.SyncBatchSize)

		// Catch up on rows whose messages were lost while down.
		logger.Info("Performing startup sync check...")
		if err := syncWorker.ProcessPendingExpenses(ctx); err != nil {
			logger.Error("Startup sync check failed", "error", err)
		}

		go func() {
			if err := amqpClient.ConsumeExpenseChanged(ctx, syncWorker.HandleChangeMessage); err != nil {
				if err != context.Canceled {
					logger.Error("Message consumption failed", "error", err)
				}
				cancel()
			}
		}()

		// Periodic sweep for anything the queue missed.
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := syncWorker.ProcessPendingExpenses(ctx); err != nil {
						logger.Error("Periodic sync failed", "error", err)
					}
				}
			}
		}()
	} else {
		logger.Info("Skipping sync operations - exporter not available")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()

	// Give in-flight handlers a moment to finish.
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
