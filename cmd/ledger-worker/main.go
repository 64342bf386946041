package main

import (
	"context"
	"errors"
	"net"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ledgerbot/internal/amqp"
	"ledgerbot/internal/backend"
	"ledgerbot/internal/cli"
	"ledgerbot/internal/config"
	"ledgerbot/internal/health"
	"ledgerbot/internal/log"
	gsheet "ledgerbot/internal/sheets/google"
	"ledgerbot/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting ledger-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Failed to build backend config", log.FieldError, err)
		os.Exit(1)
	}
	store, err := backend.NewFactory(logger).CreateSyncStore(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to open transaction store", log.FieldError, err)
		os.Exit(1)
	}

	sheetsClient, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	mirror := worker.NewMirror(store, sheetsClient, cfg.SyncBatchSize, logger)

	probes := health.NewServer(net.JoinHostPort("", cfg.HealthPort), logger)
	if pinger, ok := store.(interface{ Ping(context.Context) error }); ok {
		probes.AddCheck("storage", pinger.Ping)
	}

	ctx, cancel, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.Error("Failed to close AMQP client", log.FieldError, err)
		}
		if err := store.Close(); err != nil {
			logger.Error("Failed to close store", log.FieldError, err)
		}
	})
	defer cancel()

	// On startup, mirror any transactions recorded while the worker was down
	logger.Info("Performing startup sync check...")
	if err := mirror.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.ConsumeTransactions(gctx, mirror.HandleRecorded)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error { return mirror.RunSweep(gctx, cfg.SyncInterval) })
	if cfg.HealthPort != "" {
		g.Go(func() error { return probes.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
	}
	cancel()
	cli.WaitForShutdown(ctx, done)
}
