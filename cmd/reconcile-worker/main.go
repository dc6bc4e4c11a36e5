package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LuizHUlmi/life-planner-sub000/internal/cli"
	"github.com/LuizHUlmi/life-planner-sub000/internal/config"
	applog "github.com/LuizHUlmi/life-planner-sub000/internal/log"
	"github.com/LuizHUlmi/life-planner-sub000/internal/services"
)

func main() {
	logger, cfg := cli.Setup(applog.ComponentReconciler)

	logger.Info("Starting reconcile-worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, cleanup := cli.OpenStore(ctx, logger, cfg)
	defer cli.RunCleanup(logger, cleanup)

	reconciler := services.NewReconciler(store)
	userID := reconcileUser(cfg)

	logger.Info("Obligation reconciler configured",
		"interval", cfg.ReconcileInterval,
		"user", userID,
		"backend", cfg.DataBackend)

	runOnce := func(now time.Time) {
		res, err := reconciler.Reconcile(ctx, userID, now)
		switch {
		case err == nil:
			logger.Info("Reconciliation pass complete",
				"generated", res.Generated, "skipped", res.Skipped)
		case errors.Is(err, services.ErrPartialReconciliation):
			logger.Warn("Reconciliation partially failed",
				"generated", res.Generated,
				"skipped", res.Skipped,
				"failed", res.Failed)
		default:
			logger.Error("Reconciliation pass failed", "error", err)
		}
	}

	// Catch up immediately on startup, then on the ticker.
	runOnce(time.Now())

	ticker := time.NewTicker(cfg.ReconcileInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				runOnce(now)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
	}

	logger.Info("Reconcile-worker stopped")
}

// reconcileUser resolves the account obligations belong to. Without
// configured credentials the application runs as the fixed local user.
func reconcileUser(cfg *config.Config) string {
	if cfg.AuthEnabled() {
		return cfg.AuthUsername
	}
	return "local"
}
