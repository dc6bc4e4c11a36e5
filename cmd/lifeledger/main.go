package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LuizHUlmi/life-planner-sub000/internal/amqp"
	"github.com/LuizHUlmi/life-planner-sub000/internal/auth"
	"github.com/LuizHUlmi/life-planner-sub000/internal/cli"
	apphttp "github.com/LuizHUlmi/life-planner-sub000/internal/http"
	"github.com/LuizHUlmi/life-planner-sub000/internal/importer"
	applog "github.com/LuizHUlmi/life-planner-sub000/internal/log"
	"github.com/LuizHUlmi/life-planner-sub000/internal/services"
)

func main() {
	logger, cfg := cli.Setup(applog.ComponentApp)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, cleanup := cli.OpenStore(ctx, logger, cfg)
	defer cli.RunCleanup(logger, cleanup)

	// The broker is optional: without it writes stay local and the sync
	// worker's sweep never sees new rows from this instance.
	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without sync publishing", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled, transactions will not sync")
	}

	ledgerService := services.NewLedgerService(store, publisher)

	var authenticator *auth.Authenticator
	if cfg.AuthEnabled() {
		sessions := auth.NewSessionStore(cfg.SessionTTL)
		authenticator = auth.NewAuthenticator(cfg.AuthUsername, cfg.AuthPasswordHash, sessions)
		logger.Info("Authentication enabled", "username", cfg.AuthUsername, "session_ttl", cfg.SessionTTL)
	} else {
		logger.Warn("Authentication disabled, all requests act as the local user")
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:          ":" + cfg.Port,
		Store:         store,
		Ledger:        ledgerService,
		Reconciler:    services.NewReconciler(store),
		Importer:      importer.NewImporter(store),
		Authenticator: authenticator,
		Logger:        logger.WithComponent(applog.ComponentHTTP),
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting lifeledger server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
