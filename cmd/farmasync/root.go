package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/api"
	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/config"
	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/observer"
	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/staging"
	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/store"
	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/transform"
	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/warehouse"
	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/worker"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "farmasync",
	Short: "Farmanossa delivery warehouse sync service",
	RunE:  run,
}

func run(cmd *cobra.Command, args []string) error {
	// Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)
	slog.Info("logger initialized", "level", cfg.Log.Level)

	// Initialize store (migrations, WAL mode)
	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	// Initialize HTTP router
	obs := observer.NewStatusObserver(db)
	handler := api.NewHandler(db, obs, cfg.Auth.APIKey, Version)
	router := api.NewRouter(handler)
	slog.Info("router initialized")

	// Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// Worker lifecycle infrastructure
	var wg sync.WaitGroup

	coordinator, err := buildCoordinator(db, cfg)
	if err != nil {
		return err
	}
	if coordinator != nil {
		startWorker(ctx, &wg, "sync-coordinator", coordinator.Run)
	} else {
		slog.Warn("staging or warehouse not configured, sync coordinator disabled")
	}

	// Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called
		// gracefully. Any other error is a real server failure.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	// Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// Graceful shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// Stop HTTP server (drains in-flight requests)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Wait for workers to complete
	wg.Wait()

	// Close store
	if err := db.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// buildCoordinator wires the sync coordinator, or returns nil when the
// staging or warehouse boundary is not configured.
func buildCoordinator(db store.Store, cfg *config.Config) (*worker.SyncCoordinator, error) {
	if !cfg.Staging.Configured() || !cfg.Warehouse.Configured() {
		return nil, nil
	}

	stager, err := staging.NewObjectStore(cfg.Staging)
	if err != nil {
		return nil, err
	}
	loader := warehouse.NewHTTPLoader(cfg.Warehouse.BaseURL, cfg.Warehouse.APIKey)
	transformer := transform.NewTransformer(db)

	return worker.NewSyncCoordinator(db, transformer, stager, loader, worker.Config{
		Interval:    time.Duration(cfg.Worker.SyncInterval),
		BatchSize:   cfg.Worker.BatchSize,
		OrdersTable: cfg.Warehouse.OrdersTable,
		RunsTable:   cfg.Warehouse.RunsTable,
	}), nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context
// cancellation. Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
