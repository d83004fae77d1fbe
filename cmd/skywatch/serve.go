package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/skywatch-dev/skywatch/config"
	"github.com/skywatch-dev/skywatch/internal/server"
	"github.com/spf13/cobra"
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// serveCmd starts the tracker, the optional update checker, and the API
// server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tracker and API server",
	Long: `Start the background position tracker and the HTTP API server.

The server will:
  - Load configuration from the specified YAML file (or defaults)
  - Start polling the configured satellite position API
  - Start periodic update checks when an update repo is configured
  - Serve JSON snapshots on the configured listen address

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  skywatch serve
  skywatch serve -c config.yaml
  skywatch serve --config /etc/skywatch/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (optional, defaults apply)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"listen", cfg.Listen,
		"satellite_id", cfg.Tracker.SatelliteID,
		"track_interval", cfg.Tracker.Interval.Duration().String(),
		"update_repo", cfg.Update.Repo,
	)

	tracker, err := config.BuildTracker(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build tracker: %w", err)
	}
	checker, err := config.BuildUpdateChecker(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build update checker: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracker.Start(ctx)
	defer tracker.Stop()
	if checker != nil {
		checker.Start(ctx)
		defer checker.Stop()
	}

	srv := server.New(tracker, checker, cfg.Listen, logger)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
