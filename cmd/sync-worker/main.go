package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/LuizHUlmi/life-planner-sub000/internal/amqp"
	"github.com/LuizHUlmi/life-planner-sub000/internal/cli"
	applog "github.com/LuizHUlmi/life-planner-sub000/internal/log"
	gsheet "github.com/LuizHUlmi/life-planner-sub000/internal/sheets/google"
	"github.com/LuizHUlmi/life-planner-sub000/internal/worker"
)

func main() {
	logger, cfg := cli.Setup(applog.ComponentWorker)

	logger.Info("Starting sync-worker")

	if !cfg.SheetExportEnabled() {
		logger.Error("Sheet export not configured, sync-worker has nothing to do; set GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sync-worker")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, cleanup := cli.OpenStore(ctx, logger, cfg)
	defer cli.RunCleanup(logger, cleanup)

	sheetsClient, err := gsheet.NewClient(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsFile: cfg.GoogleCredentialsFile,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(store, sheetsClient, sheetsClient, cfg.SyncBatchSize)

	// Drain rows written while the worker was down before consuming.
	logger.Info("Performing startup sync check")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Startup sync check failed", "error", err)
	}

	logger.Info("Consuming sync messages",
		"queue", cfg.AMQPQueue,
		"sweep_interval", cfg.SyncInterval,
		"batch_size", cfg.SyncBatchSize)

	if err := syncWorker.Run(ctx, amqpClient, cfg.SyncInterval); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Sync worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Sync-worker stopped gracefully")
}
