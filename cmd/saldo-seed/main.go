package main

import (
	"context"
	"os"

	"saldo/internal/cli"
	"saldo/internal/ledger"
	"saldo/internal/seed"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	store := cli.OpenStore(ctx, logger, cfg)
	if store.Cleanup != nil {
		defer store.Cleanup()
	}

	l := ledger.New(store.Store, nil)
	if err := l.Load(ctx); err != nil {
		logger.Error("Failed to load ledger snapshot", "error", err)
		os.Exit(1)
	}

	if err := seed.Run(ctx, l); err != nil {
		logger.Error("Seeding failed", "error", err)
		_ = l.Close()
		os.Exit(1)
	}

	if err := l.Close(); err != nil {
		logger.Error("Failed to flush seeded data", "error", err)
		os.Exit(1)
	}

	logger.Info("Demo data seeded", "backend", cfg.DataBackend)
}
