// Package skywatch provides background satellite-position tracking and
// application-update checking for long-running programs.
//
// Both features share one engine: a cancellable polling worker that
// periodically performs a blocking network fetch, decodes the response,
// and publishes the result into state shared with the caller's
// goroutines. The worker guarantees race-free snapshot reads, bounded
// history retention, and deterministic shutdown: Stop interrupts the
// inter-poll sleep immediately and returns only once the loop has fully
// exited, after which no further callbacks fire.
//
// # Quick Start
//
// Track the ISS and print each fix as it arrives:
//
//	tr, _ := skywatch.NewTracker(
//	    skywatch.WithOnPosition(func(p skywatch.Position) {
//	        fmt.Printf("lat=%.2f lon=%.2f alt=%.0fkm\n", p.Latitude, p.Longitude, p.Altitude)
//	    }),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	tr.Start(ctx)
//	<-ctx.Done()
//	tr.Stop()
//
// Check a GitHub repository for a newer release:
//
//	uc, _ := skywatch.NewUpdateChecker("skywatch-dev", "skywatch", "1.2.0")
//	status, err := uc.Check(ctx)
//	if err == nil && status.Available {
//	    fmt.Printf("update available: %s -> %s\n", status.CurrentVersion, status.LatestVersion)
//	}
//
// # Configuration
//
// Both types use the functional options pattern:
//
//	tr, err := skywatch.NewTracker(
//	    skywatch.WithTrackInterval(10 * time.Second),
//	    skywatch.WithHistorySize(200),
//	    skywatch.WithSatelliteID(25544),
//	    skywatch.WithTrackerLogger(logger),
//	)
//
// # Concurrency
//
// Each tracker or checker owns exactly one background goroutine. Snapshot
// accessors (CurrentPosition, History, Trail, LastStatus) are safe from
// any goroutine and return copies, never references into internal state.
// Callbacks run on the worker's goroutine, strictly serialized; marshal
// back to a UI or main loop yourself if needed.
//
// # Architecture
//
// skywatch consists of several internal packages (under internal/):
//
//   - internal/poller: the cancellable polling worker and its contracts
//   - internal/store: mutex-guarded current value plus FIFO history ring
//   - internal/httpx: pooled HTTP client with JSON decode helpers
//   - internal/server: optional JSON API over the live snapshots
//
// The internal packages are not part of the public API and may change
// without notice.
package skywatch
