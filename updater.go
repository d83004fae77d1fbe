package skywatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goversion "github.com/hashicorp/go-version"

	"github.com/skywatch-dev/skywatch/internal/httpx"
	"github.com/skywatch-dev/skywatch/internal/poller"
)

const (
	// DefaultCheckInterval is the delay between periodic update checks.
	DefaultCheckInterval = 6 * time.Hour

	// defaultReleaseAPI is the GitHub REST API root.
	defaultReleaseAPI = "https://api.github.com"

	// defaultCheckTimeout bounds a single releases request.
	defaultCheckTimeout = 10 * time.Second

	checkerUserAgent = "skywatch-updater/1.0"
)

// UpdateStatus is the outcome of one update check.
type UpdateStatus struct {
	// Available reports whether the latest published release is newer
	// than the running version.
	Available bool `json:"available"`

	// CurrentVersion is the running application version.
	CurrentVersion string `json:"current_version"`

	// LatestVersion is the newest release version, with any leading "v"
	// stripped.
	LatestVersion string `json:"latest_version"`

	// ReleaseURL is the human-facing release page.
	ReleaseURL string `json:"release_url,omitempty"`

	// ReleaseNotes is the release body text.
	ReleaseNotes string `json:"release_notes,omitempty"`

	// DownloadURL is the first release asset, if any.
	DownloadURL string `json:"download_url,omitempty"`
}

// UpdateChecker polls a GitHub repository's latest release and compares it
// against the running version.
//
// Like [Tracker], it is built on a single background polling worker:
// Start/Stop manage a periodic loop with a long default interval, while
// [UpdateChecker.Check] and [UpdateChecker.CheckAsync] perform one-shot
// checks, the usual pattern for a check-at-startup flow.
type UpdateChecker struct {
	worker  *poller.Worker[UpdateStatus]
	client  *httpx.Client
	url     string
	current *goversion.Version
	logger  *slog.Logger
}

// NewUpdateChecker creates an [UpdateChecker] for the given repository.
//
// currentVersion must be a parseable semantic version (a leading "v" is
// accepted). Defaults: the public GitHub API, a 6 hour periodic interval,
// a 10 second request timeout, and [slog.Default] for logging.
func NewUpdateChecker(owner, repo, currentVersion string, opts ...UpdateOption) (*UpdateChecker, error) {
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("repository owner and name are required")
	}
	current, err := goversion.NewVersion(currentVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid current version %q: %w", currentVersion, err)
	}

	cfg := &updateConfig{
		interval: DefaultCheckInterval,
		baseURL:  defaultReleaseAPI,
		timeout:  defaultCheckTimeout,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &UpdateChecker{
		client:  httpx.NewClient(checkerUserAgent),
		url:     fmt.Sprintf("%s/repos/%s/%s/releases/latest", cfg.baseURL, owner, repo),
		current: current,
		logger:  logger,
	}

	var notifier poller.Notifier[UpdateStatus]
	if cfg.onUpdate != nil {
		onUpdate := cfg.onUpdate
		notifier = func(s poller.Sample[UpdateStatus]) {
			onUpdate(s.Value)
		}
	}

	timeout := cfg.timeout
	c.worker = poller.New(func(ctx context.Context) poller.Sample[UpdateStatus] {
		return c.fetchStatus(ctx, timeout)
	}, poller.Options[UpdateStatus]{
		Name:     "update-checker",
		Interval: cfg.interval,
		Notifier: notifier,
		Logger:   logger,
	})

	return c, nil
}

// Start begins periodic update checks in a background goroutine.
//
// Non-blocking and idempotent while a run is active. Most callers only
// need the one-shot [UpdateChecker.Check]; the periodic mode suits
// long-running processes that want to notice new releases eventually.
func (c *UpdateChecker) Start(ctx context.Context) {
	c.worker.Start(ctx)
}

// Stop halts periodic checks and waits for the background loop to exit.
// Idempotent, and a safe no-op when no loop is running.
func (c *UpdateChecker) Stop() {
	c.worker.Stop()
	c.client.Close()
}

// IsChecking reports whether the periodic check loop is active.
func (c *UpdateChecker) IsChecking() bool {
	return c.worker.IsRunning()
}

// Check performs one synchronous update check.
//
// The outcome also becomes the latest status visible via
// [UpdateChecker.LastStatus].
func (c *UpdateChecker) Check(ctx context.Context) (UpdateStatus, error) {
	s := c.worker.FetchOnce(ctx)
	if !s.Valid {
		return UpdateStatus{CurrentVersion: c.current.Original()}, s.Err
	}
	return s.Value, nil
}

// CheckAsync runs a single check on a new goroutine and invokes callback
// with the outcome.
//
// If ctx is cancelled before the check completes, the result is discarded
// and the callback is not invoked, mirroring the loop's discard-on-stop
// rule. A nil callback just refreshes [UpdateChecker.LastStatus].
func (c *UpdateChecker) CheckAsync(ctx context.Context, callback func(UpdateStatus, error)) {
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		status, err := c.Check(ctx)
		if ctx.Err() != nil {
			c.logger.Debug("update check cancelled, discarding result")
			return
		}
		if callback != nil {
			callback(status, err)
		}
	}()
}

// LastStatus returns the most recent check outcome.
//
// The second return value is false until a check has succeeded, and
// again after a one-shot check fails, since one-shot outcomes replace
// the current status.
func (c *UpdateChecker) LastStatus() (UpdateStatus, bool) {
	s := c.worker.Current()
	return s.Value, s.Valid
}

// releaseWire is the GitHub releases/latest response shape.
type releaseWire struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
	Body    string `json:"body"`
	Assets  []struct {
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// fetchStatus performs one releases request and version comparison.
func (c *UpdateChecker) fetchStatus(ctx context.Context, timeout time.Duration) poller.Sample[UpdateStatus] {
	headers := map[string]string{"Accept": "application/vnd.github+json"}

	var wire releaseWire
	if err := c.client.GetJSON(ctx, c.url, headers, timeout, &wire); err != nil {
		return poller.Sample[UpdateStatus]{Err: err, FetchedAt: time.Now()}
	}

	if wire.TagName == "" {
		return poller.Sample[UpdateStatus]{
			Err:       fmt.Errorf("no tag_name in release response from %s", c.url),
			FetchedAt: time.Now(),
		}
	}

	latest, err := goversion.NewVersion(wire.TagName)
	if err != nil {
		return poller.Sample[UpdateStatus]{
			Err:       fmt.Errorf("unparseable release tag %q: %w", wire.TagName, err),
			FetchedAt: time.Now(),
		}
	}

	status := UpdateStatus{
		Available:      c.current.LessThan(latest),
		CurrentVersion: c.current.Original(),
		LatestVersion:  strings.TrimPrefix(wire.TagName, "v"),
		ReleaseURL:     wire.HTMLURL,
		ReleaseNotes:   wire.Body,
	}
	if len(wire.Assets) > 0 {
		status.DownloadURL = wire.Assets[0].BrowserDownloadURL
	}

	if status.Available {
		c.logger.Info("update available",
			"current", status.CurrentVersion,
			"latest", status.LatestVersion,
		)
	}

	return poller.Sample[UpdateStatus]{Value: status, Valid: true, FetchedAt: time.Now()}
}
