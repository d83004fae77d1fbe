package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/skywatch-dev/skywatch"
	"github.com/skywatch-dev/skywatch/config"
	"github.com/spf13/cobra"
)

// trackCmd prints live position fixes to the terminal.
var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Print live position fixes",
	Long: `Poll the satellite position API and print each fix as it arrives.

Runs until interrupted (Ctrl+C). Configuration is optional; with no
config file the tracker follows the ISS every 5 seconds.

Example:
  skywatch track
  skywatch track -c config.yaml`,
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)

	trackCmd.Flags().StringP("config", "c", "", "path to config file (optional, defaults apply)")
}

func runTrack(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	tracker, err := config.BuildTracker(cfg, logger,
		skywatch.WithOnPosition(func(p skywatch.Position) {
			fmt.Printf("lat=%9.4f  lon=%9.4f  alt=%7.1f km  vel=%8.1f km/h\n",
				p.Latitude, p.Longitude, p.Altitude, p.Velocity)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to build tracker: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("tracking satellite %d, interval %s (Ctrl+C to stop)\n",
		cfg.Tracker.SatelliteID, tracker.Interval())

	tracker.Start(ctx)
	<-ctx.Done()
	tracker.Stop()

	fmt.Printf("stopped after %d retained fixes\n", len(tracker.History()))
	return nil
}
