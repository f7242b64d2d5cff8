package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/config"
	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/store"
)

var drainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Run one sync cycle over both queue kinds and exit",
	RunE:  drain,
}

func init() {
	rootCmd.AddCommand(drainCmd)
}

func drain(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("store close error", "error", err)
		}
	}()

	coordinator, err := buildCoordinator(db, cfg)
	if err != nil {
		return err
	}
	if coordinator == nil {
		return errors.New("drain requires staging and warehouse configuration")
	}

	return coordinator.DrainOnce(ctx)
}
