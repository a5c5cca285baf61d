package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"findash/internal/amqp"
	"findash/internal/backend"
	"findash/internal/cache"
	"findash/internal/charts"
	"findash/internal/cli"
	"findash/internal/config"
	"findash/internal/dashboard"
	apphttp "findash/internal/http"
	"findash/internal/ledger"
	"findash/internal/log"
	"findash/internal/services"
	gsheet "findash/internal/sheets/google"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	logger.Info("Starting findash", "port", cfg.Port, "backend", cfg.DataBackend, "source", cfg.DataSource)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger).CreateBackend(startupCtx, backendCfg)
	if err != nil {
		logger.Error("Failed to create dataset store", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	loader := ledger.NewLoader(ledger.Schema{
		Date:        cfg.ColumnDate,
		Description: cfg.ColumnDescription,
		Category:    cfg.ColumnCategory,
		Amount:      cfg.ColumnAmount,
		Label:       cfg.ColumnLabel,
	}, cfg.MaxUploadBytes)

	controller := dashboard.NewController(nil,
		charts.Options{Currency: cfg.CurrencySymbol, AmountLabel: cfg.AmountLabel},
		logger,
		dashboard.WithCacheTTL(cfg.CacheTTL),
		dashboard.WithViewCache(cache.NewLRUCache[dashboard.View](cfg.CacheSize, cfg.CacheTTL)))

	cacheManager := cache.NewManager(logger)
	for _, c := range controller.Caches() {
		cacheManager.Register(c)
	}
	cacheManager.Start(context.Background(), cfg.CacheTTL)

	opts := []services.Option{services.WithDataFile(cfg.DataFile)}
	if cfg.DataSource == config.SourceSheets {
		source, err := gsheet.New(startupCtx, cli.GoogleSheetsConfig(cfg), logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets source", log.FieldError, err)
			os.Exit(1)
		}
		opts = append(opts, services.WithSource(source))
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			// uploads keep working; events are dropped until restart
			logger.Error("Failed to initialize AMQP client, dataset events disabled", log.FieldError, err)
		} else {
			opts = append(opts, services.WithPublisher(amqpClient))
		}
	}

	datasets := services.NewDatasetService(controller, loader, be.Store, logger, opts...)
	view, err := datasets.LoadInitial(startupCtx)
	if err != nil {
		logger.Error("Failed to load initial dataset", log.FieldError, err, "data_file", cfg.DataFile)
		os.Exit(1)
	}
	logger.Info("Initial dataset loaded",
		log.NewFields().WithDataset(view.Dataset.ID, view.Dataset.Name, view.Dataset.Source, view.Dataset.Rows).
			WithSelection(view.Year, view.Tab.String()).ToSlice()...)

	srv, err := apphttp.NewServer(apphttp.Config{
		Addr:             ":" + cfg.Port,
		UploadsPerMinute: cfg.UploadsPerMinute,
		MaxUploadBytes:   cfg.MaxUploadBytes,
		Health:           be.Health,
	}, controller, datasets, logger)
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if be.Cleanup != nil {
			if err := be.Cleanup(); err != nil {
				logger.Warn("Dataset store close error", log.FieldError, err)
			}
		}
	})

	logger.Info("HTTP server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
