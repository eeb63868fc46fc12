package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tknelms/carkeeper/backend/cmd/desktop/handlers"
	"github.com/tknelms/carkeeper/backend/internal/config"
	"github.com/tknelms/carkeeper/backend/internal/logging"
	"github.com/tknelms/carkeeper/backend/internal/queue"
	"github.com/tknelms/carkeeper/backend/internal/reports"
	"github.com/tknelms/carkeeper/backend/internal/schedule"
	"github.com/tknelms/carkeeper/backend/internal/store"
	"github.com/tknelms/carkeeper/backend/internal/transfer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init(os.Stderr, logging.LevelInfo)
		logging.Error("failed to load configuration", err, nil)
		os.Exit(1)
	}

	logging.Init(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	s, err := store.Open(cfg.DataDir)
	if err != nil {
		logging.Error("failed to open store", err, map[string]any{"dataDir": cfg.DataDir})
		os.Exit(1)
	}
	defer s.Close()

	if s.Degraded() {
		logging.Warn("running on fallback storage", map[string]any{
			"path": store.FallbackPath(cfg.DataDir),
		})
	}

	queueSvc := queue.New(s)
	transferSvc := transfer.New(s, store.FallbackPath(cfg.DataDir))
	reportsSvc := reports.New(s)

	replay := queue.HTTPReplayer(&http.Client{Timeout: 30 * time.Second}, cfg.RemoteBaseURL)

	runner := schedule.NewRunner(s, reportsSvc.GenerateScheduled, cfg.SchedulePollInterval)

	hub := newWSHub()
	defer hub.Close()

	router := handlers.NewRouter(s, queueSvc, transferSvc, reportsSvc, replay, hub, hub.serveWS)

	server := &http.Server{
		Addr:         cfg.BridgeAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		logging.Info("desktop bridge listening", map[string]any{"addr": cfg.BridgeAddr})
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info("shutting down", map[string]any{"signal": sig.String()})
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("server failed", err, nil)
		}
	}

	cancel()
	runner.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("graceful shutdown failed", err, nil)
	}
}
