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

	"bilancio/internal/amqp"
	"bilancio/internal/config"
	apphttp "bilancio/internal/http"
	applog "bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

func main() {
	// Load .env for local development; absent in production.
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: "bilancio"})
	applog.SetDefault(logger)

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

	// AMQP is optional: without it expenses stay local and the sync
	// queue catches the spreadsheet up later.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing in SQLite-only mode", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized")
		}
	} else {
		logger.Info("AMQP disabled - expenses will not sync to Google Sheets")
	}

	summaries := services.NewSummaryService(repo, cfg.SummaryCacheSize, cfg.SummaryCacheTTL, cfg.VariableMonthsLookback)
	expenses := services.NewExpenseService(repo, amqpClient, summaries)

	srv := apphttp.NewServer(cfg.Port, expenses, summaries, repo)

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

	logger.Info("Starting bilancio server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
