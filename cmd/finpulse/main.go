package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finpulse/internal/advice"
	"finpulse/internal/auth"
	"finpulse/internal/backend"
	"finpulse/internal/cache"
	"finpulse/internal/cli"
	"finpulse/internal/config"
	apphttp "finpulse/internal/http"
	"finpulse/internal/log"
	"finpulse/internal/middleware/ratelimit"
	"finpulse/internal/services"
)

const (
	adviceCacheSize      = 256
	cacheCleanupInterval = 10 * time.Minute
	shutdownTimeout      = 30 * time.Second
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateAPI)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	store, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	ledger := services.NewLedgerService(store.Repository, store.Publisher)
	goals := services.NewGoalService(store.Repository)
	svc := apphttp.Services{
		Ledger:    ledger,
		Budgets:   services.NewBudgetService(store.Repository),
		Goals:     goals,
		Sweeps:    services.NewSweepService(store.Repository, store.Publisher),
		Recurring: services.NewRecurringService(store.Repository),
	}

	caches := cache.NewManager()
	if cfg.AdviceEnabled() {
		provider, err := advice.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("Failed to initialize advice provider", log.FieldError, err)
			os.Exit(1)
		}
		var adviceCache cache.Cache[string]
		if cfg.AdviceCacheTTL > 0 {
			lru := cache.NewLRUCache[string](adviceCacheSize, cfg.AdviceCacheTTL)
			caches.Register(lru)
			adviceCache = lru
		}
		svc.Advice = services.NewAdviceService(goals, ledger, provider, adviceCache)
		logger.Info("Advice enabled", "model", cfg.GeminiModel, "cache_ttl", cfg.AdviceCacheTTL)
	} else {
		logger.Info("Advice disabled, GEMINI_API_KEY not set")
	}
	caches.StartCleanup(cacheCleanupInterval)

	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		logger.Error("Failed to initialize token verifier", log.FieldError, err)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(apphttp.Config{
		Addr:            ":" + cfg.Port,
		Verifier:        verifier,
		Logger:          logger.WithComponent(log.ComponentHTTP),
		Ready:           store.Ready,
		RateLimit:       ratelimit.DefaultConfig(),
		TrustedProxies:  cfg.TrustedProxies,
		BlockSuspicious: cfg.BlockSuspicious,
	}, svc)
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	go func() {
		logger.Info("Starting finpulse server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			cancel()
		}
	}()

	ok := cli.GracefulShutdown(ctx, logger, shutdownTimeout, func(shutdownCtx context.Context) error {
		err := srv.Shutdown(shutdownCtx)
		caches.Stop()
		return errors.Join(err, store.Cleanup())
	})
	if !ok {
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
