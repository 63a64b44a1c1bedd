// Package cli holds the start-up steps the FinPulse binaries share.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finpulse/internal/config"
	"finpulse/internal/log"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and installs it as
// the slog default.
func SetupLogger(component string) *log.Logger {
	return log.Setup(os.Getenv("LOG_LEVEL"), component)
}

// LoadAndValidateConfig loads configuration and runs validate on it, exiting
// the process on failure. Pass (*config.Config).Validate or ValidateAPI.
func LoadAndValidateConfig(logger *log.Logger, validate func(*config.Config) error) *config.Config {
	cfg := config.Load()
	if err := validate(cfg); err != nil {
		logger.Error("Configuration validation failed",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// GracefulShutdown runs cleanup with a deadline once ctx is done and reports
// whether it finished in time.
func GracefulShutdown(ctx context.Context, logger *log.Logger, timeout time.Duration, cleanup func(context.Context) error) bool {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- cleanup(shutdownCtx) }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("Shutdown failed", log.FieldError, err, log.FieldOperation, log.OpShutdown)
			return false
		}
		logger.Info("Shutdown complete")
		return true
	case <-shutdownCtx.Done():
		logger.Warn("Shutdown timeout reached", "timeout", timeout)
		return false
	}
}
