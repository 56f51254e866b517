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
	applog "bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: "recurring-worker"})
	applog.SetDefault(logger)

	logger.Info("Starting recurring-worker")

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

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing in SQLite-only mode", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	}

	// Template-generated expenses go through the same service as manual
	// ones, so they hit the cache invalidation and export path too.
	summaries := services.NewSummaryService(repo, cfg.SummaryCacheSize, cfg.SummaryCacheTTL, cfg.VariableMonthsLookback)
	expenseService := services.NewExpenseService(repo, amqpClient, summaries)
	processor := services.NewRecurringProcessor(repo, expenseService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Recurring template processor configured",
		"interval", cfg.RecurringInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	// Initial run on startup so a stopped worker catches up immediately.
	if count, err := processor.ProcessDueTemplates(ctx, time.Now()); err != nil {
		logger.Error("Initial processing failed", "error", err)
	} else {
		logger.Info("Initial processing complete", "expenses_created", count)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				count, err := processor.ProcessDueTemplates(ctx, now)
				if err != nil {
					logger.Error("Periodic processing failed", "error", err)
				} else {
					logger.Info("Periodic processing complete",
						"expenses_created", count,
						"next_check", now.Add(cfg.RecurringInterval).Format("15:04:05"))
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	logger.Info("Recurring-worker shutdown complete")
}
