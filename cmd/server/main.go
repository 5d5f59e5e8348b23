package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/barcoder/internal/api"
	"github.com/dgallion1/barcoder/internal/config"
	"github.com/dgallion1/barcoder/internal/pipeline"
	"github.com/dgallion1/barcoder/internal/state"
)

func main() {
	cfg := config.Load()

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize state and pipeline.
	store, closeStore, err := state.Open(cfg)
	if err != nil {
		log.Error("state store", "error", err)
		os.Exit(1)
	}
	runner, err := pipeline.NewDefaultRunner(cfg, store, log)
	if err != nil {
		log.Error("pipeline", "error", err)
		os.Exit(1)
	}
	orch := pipeline.NewOrchestrator(runner, cfg.RunTTL, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv, err := api.NewServer(orch, log, cfg)
	if err != nil {
		log.Error("api server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		closeStore()
	}()

	log.Info("starting barcoder",
		"port", cfg.Port,
		"state_backend", cfg.StateBackend,
		"stamp", [2]float64{cfg.StampWidth, cfg.StampHeight},
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
