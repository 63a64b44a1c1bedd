package main

import (
	"context"
	"os"
	"time"

	"finpulse/internal/backend"
	"finpulse/internal/cli"
	"finpulse/internal/config"
	"finpulse/internal/log"
	"finpulse/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentRecurring)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	logger.Info("Starting recurring-worker")

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	store, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}
	defer store.Cleanup()

	// Entries go through the ledger service so they are announced to the
	// mirror like any other write.
	ledger := services.NewLedgerService(store.Repository, store.Publisher)
	processor := services.NewRecurringProcessor(store.Repository, ledger)

	interval := cfg.RecurringInterval
	logger.Info("Recurring processor configured", "interval", interval, "backend", cfg.DataBackend)

	run := func(now time.Time) {
		count, err := processor.ProcessDue(ctx, now)
		if err != nil {
			logger.Error("Recurring processing failed", log.FieldError, err)
			return
		}
		logger.Info("Recurring processing complete",
			"transactions_created", count,
			"next_check", now.Add(interval).Format("15:04:05"))
	}

	logger.Info("Running initial recurring processing...")
	run(time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if ctx.Err() != context.Canceled {
				logger.Warn("Recurring worker stopped", log.FieldError, ctx.Err())
			}
			logger.Info("Recurring worker shutdown complete")
			return
		case now := <-ticker.C:
			run(now)
		}
	}
}
