package skywatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/skywatch-dev/skywatch/internal/httpx"
	"github.com/skywatch-dev/skywatch/internal/poller"
)

const (
	// DefaultTrackInterval is the delay between position polls.
	DefaultTrackInterval = 5 * time.Second

	// DefaultHistorySize is the number of positions retained for the
	// orbit trail.
	DefaultHistorySize = 100

	// DefaultSatelliteID is the NORAD catalog number of the ISS.
	DefaultSatelliteID = 25544

	// defaultPositionAPI is the Where The ISS At satellite API.
	defaultPositionAPI = "https://api.wheretheiss.at/v1"

	// defaultTrackTimeout bounds a single position request. Generous to
	// accommodate slow networks; the poll interval is not extended by a
	// fast response.
	defaultTrackTimeout = 30 * time.Second

	trackerUserAgent = "skywatch-tracker/1.0"
)

// Position is one decoded satellite position fix.
type Position struct {
	// Latitude in degrees, -90..90.
	Latitude float64 `json:"latitude"`

	// Longitude in degrees, -180..180.
	Longitude float64 `json:"longitude"`

	// Altitude above sea level, in kilometers.
	Altitude float64 `json:"altitude"`

	// Velocity in kilometers per hour.
	Velocity float64 `json:"velocity"`

	// Timestamp is the Unix time the fix was computed for.
	Timestamp int64 `json:"timestamp"`
}

// PositionSample pairs a [Position] with the outcome of the fetch that
// produced it.
//
// When Valid is false the Position carries no meaningful values and Err
// explains the failure.
type PositionSample struct {
	Position  Position  `json:"position"`
	Valid     bool      `json:"valid"`
	Err       error     `json:"-"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Tracker polls a satellite-position API in the background and retains the
// latest fix plus a bounded trail of earlier fixes.
//
// A Tracker wraps a single polling worker: Start spawns at most one loop,
// Stop joins it deterministically, and readers take snapshot copies at any
// time from any goroutine. Construct with [NewTracker] and functional
// options.
//
// The typical lifecycle is:
//
//	tr, err := skywatch.NewTracker(
//	    skywatch.WithTrackInterval(5 * time.Second),
//	    skywatch.WithOnPosition(func(p skywatch.Position) {
//	        fmt.Printf("lat=%.2f lon=%.2f\n", p.Latitude, p.Longitude)
//	    }),
//	)
//	if err != nil {
//	    slog.Error("failed to create tracker", "error", err)
//	    os.Exit(1)
//	}
//
//	tr.Start(ctx)
//	defer tr.Stop()
type Tracker struct {
	worker *poller.Worker[Position]
	client *httpx.Client
	url    string
}

// NewTracker creates a [Tracker] with the given options.
//
// Defaults: ISS (satellite 25544), 5 second interval, 100-entry history,
// the public wheretheiss.at API, and [slog.Default] for logging.
func NewTracker(opts ...TrackerOption) (*Tracker, error) {
	cfg := &trackerConfig{
		interval:    DefaultTrackInterval,
		historySize: DefaultHistorySize,
		satelliteID: DefaultSatelliteID,
		baseURL:     defaultPositionAPI,
		timeout:     defaultTrackTimeout,
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

	t := &Tracker{
		client: httpx.NewClient(trackerUserAgent),
		url:    fmt.Sprintf("%s/satellites/%d", cfg.baseURL, cfg.satelliteID),
	}

	var notifier poller.Notifier[Position]
	if cfg.onPosition != nil {
		onPosition := cfg.onPosition
		notifier = func(s poller.Sample[Position]) {
			onPosition(s.Value)
		}
	}

	timeout := cfg.timeout
	t.worker = poller.New(func(ctx context.Context) poller.Sample[Position] {
		return fetchPosition(ctx, t.client, t.url, timeout)
	}, poller.Options[Position]{
		Name:        "tracker",
		Interval:    cfg.interval,
		HistorySize: cfg.historySize,
		Notifier:    notifier,
		Logger:      logger,
	})

	return t, nil
}

// Start begins tracking in a background goroutine.
//
// Start is non-blocking and idempotent while a run is active. New fixes
// are published to the position callback (if configured) and to the
// snapshot accessors. If ctx is nil, context.Background() is used.
func (t *Tracker) Start(ctx context.Context) {
	t.worker.Start(ctx)
}

// Stop halts tracking and waits for the background loop to exit.
//
// After Stop returns, no further callbacks fire and the snapshots stop
// changing. Stop is idempotent; the tracker may be started again
// afterwards.
func (t *Tracker) Stop() {
	t.worker.Stop()
	t.client.Close()
}

// IsTracking reports whether the background loop is active.
func (t *Tracker) IsTracking() bool {
	return t.worker.IsRunning()
}

// CurrentPosition returns the most recent position sample.
//
// The sample is invalid until the first successful fetch; after that,
// failed polls leave the last valid fix in place (a failed [Tracker.FetchPosition]
// is the exception, since it reports an on-demand outcome).
func (t *Tracker) CurrentPosition() PositionSample {
	s := t.worker.Current()
	return PositionSample{Position: s.Value, Valid: s.Valid, Err: s.Err, FetchedAt: s.FetchedAt}
}

// History returns the retained position fixes, oldest first.
func (t *Tracker) History() []Position {
	samples := t.worker.History()
	out := make([]Position, len(samples))
	for i, s := range samples {
		out[i] = s.Value
	}
	return out
}

// Trail returns the retained fixes as parallel latitude and longitude
// slices, oldest first, sized for plotting an orbit ground track.
func (t *Tracker) Trail() (latitudes, longitudes []float64) {
	samples := t.worker.History()
	latitudes = make([]float64, len(samples))
	longitudes = make([]float64, len(samples))
	for i, s := range samples {
		latitudes[i] = s.Value.Latitude
		longitudes[i] = s.Value.Longitude
	}
	return latitudes, longitudes
}

// HistorySize returns the fixed capacity of the position history.
func (t *Tracker) HistorySize() int {
	return t.worker.HistorySize()
}

// Interval returns the configured polling interval.
func (t *Tracker) Interval() time.Duration {
	return t.worker.Interval()
}

// FetchPosition performs one synchronous fetch, bypassing the loop.
//
// The result replaces the current sample (even on failure, so the reader
// sees the outcome of the manual refresh) but is never added to the
// history trail. Safe to call while tracking is active.
func (t *Tracker) FetchPosition(ctx context.Context) (Position, error) {
	s := t.worker.FetchOnce(ctx)
	if !s.Valid {
		return Position{}, s.Err
	}
	return s.Value, nil
}

// positionWire is the wheretheiss.at response shape. Latitude and
// longitude are required; a response missing either is rejected.
type positionWire struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Altitude  float64  `json:"altitude"`
	Velocity  float64  `json:"velocity"`
	Timestamp int64    `json:"timestamp"`
}

// fetchPosition performs one request-and-decode round trip.
func fetchPosition(ctx context.Context, client *httpx.Client, url string, timeout time.Duration) poller.Sample[Position] {
	var wire positionWire
	if err := client.GetJSON(ctx, url, nil, timeout, &wire); err != nil {
		return poller.Sample[Position]{Err: err, FetchedAt: time.Now()}
	}

	if wire.Latitude == nil || wire.Longitude == nil {
		return poller.Sample[Position]{
			Err:       fmt.Errorf("missing latitude/longitude in response from %s", url),
			FetchedAt: time.Now(),
		}
	}

	return poller.Sample[Position]{
		Value: Position{
			Latitude:  *wire.Latitude,
			Longitude: *wire.Longitude,
			Altitude:  wire.Altitude,
			Velocity:  wire.Velocity,
			Timestamp: wire.Timestamp,
		},
		Valid:     true,
		FetchedAt: time.Now(),
	}
}
