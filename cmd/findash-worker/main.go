package main

import (
	"context"
	"errors"
	"os"
	"time"

	"findash/internal/amqp"
	"findash/internal/backend"
	"findash/internal/cli"
	"findash/internal/log"
	"findash/internal/sheets"
	gsheet "findash/internal/sheets/google"
	"findash/internal/sheets/memory"
	"findash/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting findash-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// the worker always reads what the web process stored
	be, err := backend.NewFactory(logger).CreateBackend(startupCtx, backend.Config{
		Type:         backend.SQLiteBackend,
		SQLiteDBPath: cfg.SQLiteDBPath,
		KeepDatasets: cfg.KeepDatasets,
	})
	if err != nil {
		logger.Error("Failed to open dataset store", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	var writer sheets.SummaryWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(startupCtx, cli.GoogleSheetsConfig(cfg), logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets summary export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = memory.New(1)
		logger.Info("Google Sheets disabled - summaries kept in memory only")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	exporter := worker.NewExportWorker(be.Store, writer, cfg.ExportConcurrency, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close error", log.FieldError, err)
		}
		if be.Cleanup != nil {
			if err := be.Cleanup(); err != nil {
				logger.Warn("Dataset store close error", log.FieldError, err)
			}
		}
	})

	// catch up on the dataset that was active while the worker was down
	if err := exporter.StartupExport(ctx); err != nil {
		logger.Error("Startup export failed", log.FieldError, err, log.FieldOperation, log.OpStartup)
	}

	for ctx.Err() == nil {
		err := amqpClient.ConsumeDatasetReplaced(ctx, exporter.HandleDatasetReplaced)
		if err == nil || errors.Is(err, context.Canceled) {
			break
		}
		logger.Error("Message consumption stopped, reconnecting", log.FieldError, err, log.FieldOperation, log.OpConsume)
		if err := amqpClient.Reconnect(ctx); err != nil {
			break
		}
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped", "last_exported_dataset", exporter.LastExported())
}
