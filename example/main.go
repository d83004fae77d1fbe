package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skywatch-dev/skywatch"
)

func main() {
	// start mock position API (see mock_server.go)
	go StartMockPositionServer(":9999")
	time.Sleep(100 * time.Millisecond)

	tracker, err := skywatch.NewTracker(
		skywatch.WithPositionAPI("http://localhost:9999"),
		skywatch.WithTrackInterval(time.Second),
		skywatch.WithHistorySize(50),
		skywatch.WithOnPosition(func(p skywatch.Position) {
			fmt.Printf("  fix: lat=%8.3f  lon=%8.3f  alt=%6.1f km\n",
				p.Latitude, p.Longitude, p.Altitude)
		}),
	)
	if err != nil {
		slog.Error("failed to create tracker", "error", err)
		os.Exit(1)
	}

	checker, err := skywatch.NewUpdateChecker("acme", "skywatch", "1.0.0",
		skywatch.WithReleaseAPI("http://localhost:9999"),
	)
	if err != nil {
		slog.Error("failed to create update checker", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Skywatch Demo                                       ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Tracking a simulated satellite via a local mock     ║")
	fmt.Println("  ║   API, one fix per second, 50 fixes retained.         ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// one-shot update check against the mock releases endpoint
	if status, err := checker.Check(ctx); err != nil {
		slog.Warn("update check failed", "error", err)
	} else if status.Available {
		fmt.Printf("  update available: %s -> %s (%s)\n\n",
			status.CurrentVersion, status.LatestVersion, status.ReleaseURL)
	}

	tracker.Start(ctx)
	<-ctx.Done()
	tracker.Stop()

	lats, lons := tracker.Trail()
	fmt.Printf("\n  stopped with %d fixes retained (first lat=%.3f lon=%.3f)\n",
		len(lats), firstOr(lats, 0), firstOr(lons, 0))
}

func firstOr(vals []float64, fallback float64) float64 {
	if len(vals) == 0 {
		return fallback
	}
	return vals[0]
}
