package skywatch

import (
	"errors"
	"log/slog"
	"net/url"
	"time"
)

// trackerConfig holds mutable state during Tracker construction.
type trackerConfig struct {
	interval    time.Duration
	historySize int
	satelliteID int
	baseURL     string
	timeout     time.Duration
	logger      *slog.Logger
	onPosition  func(Position)
}

// TrackerOption configures a [Tracker] during construction.
//
// Options return an error if validation fails. Built-in options:
// [WithTrackInterval], [WithHistorySize], [WithSatelliteID],
// [WithPositionAPI], [WithTrackTimeout], [WithTrackerLogger],
// [WithOnPosition].
type TrackerOption func(*trackerConfig) error

// WithTrackInterval sets the delay between position polls.
//
// Defaults to [DefaultTrackInterval] (5 seconds). Returns an error if the
// duration is zero or negative.
func WithTrackInterval(d time.Duration) TrackerOption {
	return func(cfg *trackerConfig) error {
		if d <= 0 {
			return errors.New("track interval must be positive")
		}
		cfg.interval = d
		return nil
	}
}

// WithHistorySize sets the capacity of the position trail.
//
// Defaults to [DefaultHistorySize] (100). Zero disables history retention;
// negative values are rejected.
func WithHistorySize(n int) TrackerOption {
	return func(cfg *trackerConfig) error {
		if n < 0 {
			return errors.New("history size must not be negative")
		}
		cfg.historySize = n
		return nil
	}
}

// WithSatelliteID selects the NORAD catalog number to track.
//
// Defaults to [DefaultSatelliteID] (the ISS).
func WithSatelliteID(id int) TrackerOption {
	return func(cfg *trackerConfig) error {
		if id <= 0 {
			return errors.New("satellite id must be positive")
		}
		cfg.satelliteID = id
		return nil
	}
}

// WithPositionAPI overrides the position API base URL.
//
// Useful for self-hosted mirrors and for tests against httptest servers.
// The URL must be absolute (scheme and host).
func WithPositionAPI(baseURL string) TrackerOption {
	return func(cfg *trackerConfig) error {
		u, err := url.Parse(baseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("position api must be an absolute URL")
		}
		cfg.baseURL = baseURL
		return nil
	}
}

// WithTrackTimeout bounds a single position request.
//
// Defaults to 30 seconds. Returns an error if the duration is zero or
// negative.
func WithTrackTimeout(d time.Duration) TrackerOption {
	return func(cfg *trackerConfig) error {
		if d <= 0 {
			return errors.New("track timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithTrackerLogger sets a custom [slog.Logger] for the tracker.
//
// If not specified, [slog.Default] is used. Returns an error if the
// logger is nil.
func WithTrackerLogger(logger *slog.Logger) TrackerOption {
	return func(cfg *trackerConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithOnPosition registers a callback invoked once per successful poll.
//
// The callback runs on the tracker's background goroutine, never
// concurrently with itself, and never after [Tracker.Stop] has returned.
// Marshal back to a UI thread yourself if needed; keep the callback fast,
// since it delays the next poll. Panics are recovered and logged.
//
// A nil callback is silently ignored.
func WithOnPosition(cb func(Position)) TrackerOption {
	return func(cfg *trackerConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.onPosition = cb
		return nil
	}
}
