// Package cli consolidates the initialization steps shared by the binaries
// under cmd/.
package cli

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/LuizHUlmi/life-planner-sub000/internal/backend"
	"github.com/LuizHUlmi/life-planner-sub000/internal/config"
	applog "github.com/LuizHUlmi/life-planner-sub000/internal/log"
	"github.com/LuizHUlmi/life-planner-sub000/internal/storage"
)

// Setup loads the .env file, installs the default logger for the given
// component, and returns the validated configuration. Exits the process when
// the configuration is invalid.
func Setup(component string) (*applog.Logger, *config.Config) {
	// Errors are ignored: the .env file is a local development convenience.
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: component})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	return logger, cfg
}

// OpenStore builds the configured ledger store through the backend factory.
// Exits the process on failure; the returned cleanup is nil for stores with
// nothing to release.
func OpenStore(ctx context.Context, logger *applog.Logger, cfg *config.Config) (storage.LedgerStore, backend.CleanupFunc) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger.Logger).CreateStore(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize ledger store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	return result.Store, result.Cleanup
}

// RunCleanup invokes a store cleanup if present, logging failures.
func RunCleanup(logger *applog.Logger, cleanup backend.CleanupFunc) {
	if cleanup == nil {
		return
	}
	if err := cleanup(); err != nil {
		logger.Error("Store cleanup failed", "error", err)
	}
}
