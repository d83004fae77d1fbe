package skywatch

import (
	"errors"
	"log/slog"
	"net/url"
	"time"
)

// updateConfig holds mutable state during UpdateChecker construction.
type updateConfig struct {
	interval time.Duration
	baseURL  string
	timeout  time.Duration
	logger   *slog.Logger
	onUpdate func(UpdateStatus)
}

// UpdateOption configures an [UpdateChecker] during construction.
//
// Built-in options: [WithCheckInterval], [WithReleaseAPI],
// [WithCheckTimeout], [WithCheckerLogger], [WithOnUpdate].
type UpdateOption func(*updateConfig) error

// WithCheckInterval sets the delay between periodic update checks.
//
// Defaults to [DefaultCheckInterval] (6 hours). Returns an error if the
// duration is zero or negative.
func WithCheckInterval(d time.Duration) UpdateOption {
	return func(cfg *updateConfig) error {
		if d <= 0 {
			return errors.New("check interval must be positive")
		}
		cfg.interval = d
		return nil
	}
}

// WithReleaseAPI overrides the release API base URL.
//
// Useful for GitHub Enterprise installs and for tests against httptest
// servers. The URL must be absolute (scheme and host).
func WithReleaseAPI(baseURL string) UpdateOption {
	return func(cfg *updateConfig) error {
		u, err := url.Parse(baseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("release api must be an absolute URL")
		}
		cfg.baseURL = baseURL
		return nil
	}
}

// WithCheckTimeout bounds a single releases request.
//
// Defaults to 10 seconds. Returns an error if the duration is zero or
// negative.
func WithCheckTimeout(d time.Duration) UpdateOption {
	return func(cfg *updateConfig) error {
		if d <= 0 {
			return errors.New("check timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithCheckerLogger sets a custom [slog.Logger] for the checker.
//
// If not specified, [slog.Default] is used. Returns an error if the
// logger is nil.
func WithCheckerLogger(logger *slog.Logger) UpdateOption {
	return func(cfg *updateConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithOnUpdate registers a callback invoked once per successful periodic
// check, whether or not an update is available.
//
// The callback runs on the checker's background goroutine with the same
// serialization and shutdown guarantees as [WithOnPosition]. A nil
// callback is silently ignored.
func WithOnUpdate(cb func(UpdateStatus)) UpdateOption {
	return func(cfg *updateConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.onUpdate = cb
		return nil
	}
}
