package config

import (
	"log/slog"
	"strings"

	"github.com/skywatch-dev/skywatch"
)

// BuildTracker converts parsed configuration into a ready-to-start
// [skywatch.Tracker]. Any extra options are applied after the configured
// ones, so callers can attach callbacks.
func BuildTracker(cfg *Config, logger *slog.Logger, extra ...skywatch.TrackerOption) (*skywatch.Tracker, error) {
	opts := []skywatch.TrackerOption{
		skywatch.WithSatelliteID(cfg.Tracker.SatelliteID),
		skywatch.WithTrackInterval(cfg.Tracker.Interval.Duration()),
		skywatch.WithHistorySize(*cfg.Tracker.HistorySize),
		skywatch.WithTrackTimeout(cfg.Tracker.Timeout.Duration()),
	}
	if cfg.Tracker.API != "" {
		opts = append(opts, skywatch.WithPositionAPI(cfg.Tracker.API))
	}
	if logger != nil {
		opts = append(opts, skywatch.WithTrackerLogger(logger))
	}
	opts = append(opts, extra...)
	return skywatch.NewTracker(opts...)
}

// BuildUpdateChecker converts parsed configuration into a
// [skywatch.UpdateChecker].
//
// Returns (nil, nil) when no repository is configured; update checking is
// optional.
func BuildUpdateChecker(cfg *Config, logger *slog.Logger) (*skywatch.UpdateChecker, error) {
	if cfg.Update.Repo == "" {
		return nil, nil
	}

	// validated as "owner/name" during Parse
	owner, name, _ := strings.Cut(cfg.Update.Repo, "/")

	opts := []skywatch.UpdateOption{
		skywatch.WithCheckInterval(cfg.Update.Interval.Duration()),
		skywatch.WithCheckTimeout(cfg.Update.Timeout.Duration()),
	}
	if cfg.Update.API != "" {
		opts = append(opts, skywatch.WithReleaseAPI(cfg.Update.API))
	}
	if logger != nil {
		opts = append(opts, skywatch.WithCheckerLogger(logger))
	}
	return skywatch.NewUpdateChecker(owner, name, cfg.Update.CurrentVersion, opts...)
}
