package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"saldo/internal/amqp"
	"saldo/internal/cli"
	"saldo/internal/sheets"
	"saldo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting saldo-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if !cfg.MirrorEnabled() {
		logger.Error("Mirror disabled - no GOOGLE_SPREADSHEET_ID provided, nothing to do")
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("No AMQP_URL provided, worker cannot receive ledger events")
		os.Exit(1)
	}

	ctx := context.Background()

	store := cli.OpenStore(ctx, logger, cfg)
	if store.Cleanup != nil {
		defer store.Cleanup()
	}

	sheetsClient, err := sheets.New(ctx, cfg)
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

	mirrorWorker := worker.NewMirrorWorker(store.Store, sheetsClient, cfg.MirrorCatchupInterval)

	runCtx, cancel := context.WithCancel(ctx)
	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		cancel()
		amqpClient.Close()
	})

	g, gCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return mirrorWorker.Run(gCtx)
	})
	g.Go(func() error {
		return amqpClient.ConsumeLedgerEvents(gCtx, func(msg *amqp.LedgerEventMessage) error {
			return mirrorWorker.HandleEvent(gCtx, msg)
		})
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Worker stopped gracefully")
}
