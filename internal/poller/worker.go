package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/skywatch-dev/skywatch/internal/store"
)

// DefaultInterval is used when a worker is configured with a non-positive
// polling interval.
const DefaultInterval = 5 * time.Second

// Sample is the outcome of a single fetch.
//
// A Sample always exists, whether the fetch succeeded or not: failures are
// carried as data (Valid=false plus Err) rather than as panics or early
// returns, so the worker's failure handling is a plain branch. Only valid
// samples are ever written to history.
type Sample[T any] struct {
	// Value is the decoded result. Meaningful only when Valid is true.
	Value T

	// Valid reports whether the fetch produced a usable value.
	Valid bool

	// Err holds the fetch or decode error, if any. nil when Valid is true.
	Err error

	// FetchedAt is when the fetch completed.
	FetchedAt time.Time
}

// Fetcher performs one fetch-and-decode round trip.
//
// A Fetcher must honor ctx for its transport timeout and must report
// failures through the returned [Sample] rather than panicking. The worker
// invokes it from a single goroutine, so it does not need to be safe for
// concurrent use by the same worker (though [Worker.FetchOnce] callers
// share it and stateless implementations are strongly preferred).
type Fetcher[T any] func(ctx context.Context) Sample[T]

// Notifier observes successful fetches.
//
// Invocations are strictly serialized, happen on the worker goroutine, and
// stop before [Worker.Stop] returns. The sample passed in is a copy; the
// notifier may retain it freely.
type Notifier[T any] func(Sample[T])

// worker lifecycle phases
const (
	phaseIdle int32 = iota
	phaseRunning
	phaseStopRequested
)

// Options configures a [Worker].
type Options[T any] struct {
	// Name identifies the worker in log output.
	Name string

	// Interval is the delay between the end of one fetch and the start of
	// the next. Defaults to [DefaultInterval] if not positive.
	Interval time.Duration

	// HistorySize is the capacity of the history ring. Zero disables
	// history retention.
	HistorySize int

	// Notifier, if set, is invoked once per successful fetch.
	Notifier Notifier[T]

	// Logger receives worker lifecycle and failure events.
	// Defaults to [slog.Default] if nil.
	Logger *slog.Logger
}

// Worker runs at most one cancellable, periodic background fetch loop.
//
// Each loop iteration calls the [Fetcher], stores a valid result as the
// current value and in the history ring, invokes the optional [Notifier]
// outside the state lock, then sleeps for the configured interval. The
// sleep is interruptible, so [Worker.Stop] returns promptly rather than
// waiting out the remainder of an interval.
//
// A Worker is restartable: after Stop returns, Start may be called again
// to begin a fresh run over the same state. All lifecycle methods are safe
// for concurrent use.
type Worker[T any] struct {
	name     string
	fetch    Fetcher[T]
	interval time.Duration
	notify   Notifier[T]
	logger   *slog.Logger

	state *store.State[Sample[T]]

	mu     sync.Mutex // guards cancel and phase transitions
	cancel context.CancelFunc
	wg     sync.WaitGroup
	phase  atomic.Int32
}

// New creates a [Worker] that polls with the given fetcher.
//
// The worker is idle until [Worker.Start] is called. fetch must not be nil.
func New[T any](fetch Fetcher[T], opts Options[T]) *Worker[T] {
	if fetch == nil {
		panic("poller: nil fetcher")
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker[T]{
		name:     opts.Name,
		fetch:    fetch,
		interval: interval,
		notify:   opts.Notifier,
		logger:   logger,
		state:    store.New[Sample[T]](opts.HistorySize),
	}
}

// Interval returns the configured polling interval.
func (w *Worker[T]) Interval() time.Duration {
	return w.interval
}

// IsRunning reports whether the background loop is active.
//
// This is a lock-free snapshot; it returns false once a stop has been
// requested, even if the loop has not fully exited yet.
func (w *Worker[T]) IsRunning() bool {
	return w.phase.Load() == phaseRunning
}

// Start launches the background polling loop.
//
// Start is non-blocking: it spawns the loop goroutine and returns without
// waiting for the first fetch. Calling Start while the worker is already
// running (or still stopping) is a no-op, so a second loop can never be
// spawned. After a completed [Worker.Stop], Start begins a fresh run.
//
// If ctx is nil, context.Background() is used. Cancelling ctx stops the
// loop the same way Stop does, but without the join; use Stop when the
// caller needs the no-further-writes guarantee.
func (w *Worker[T]) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase.Load() != phaseIdle {
		w.logger.Debug("poll loop already active, skipping start", "worker", w.name)
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.phase.Store(phaseRunning)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.phase.CompareAndSwap(phaseRunning, phaseIdle) // parent ctx cancellation path
		defer cancel()
		w.run(runCtx)
	}()

	w.logger.Debug("poll loop started", "worker", w.name, "interval", w.interval.String())
}

// Stop signals cancellation and waits for the loop to exit.
//
// Stop interrupts an in-progress inter-poll sleep immediately; an in-flight
// fetch is allowed to complete naturally, after which its result is
// discarded. When Stop returns, the loop goroutine has fully exited and no
// further state writes or notifier invocations will occur.
//
// Stop is idempotent and safe to call when the worker was never started.
func (w *Worker[T]) Stop() {
	w.mu.Lock()
	if w.phase.Load() == phaseRunning {
		w.phase.Store(phaseStopRequested)
		w.cancel()
		w.logger.Debug("stop requested", "worker", w.name)
	}
	w.mu.Unlock()

	// join regardless of who requested the stop, so concurrent Stop calls
	// all return only after the loop is gone
	w.wg.Wait()
	w.phase.CompareAndSwap(phaseStopRequested, phaseIdle)
}

// FetchOnce performs a single synchronous fetch, bypassing the loop.
//
// The result, valid or not, replaces the current value so readers observe
// the most recent on-demand fetch. History is never touched and the
// notifier is not invoked. FetchOnce is safe to call while the loop is
// running; the state mutex serializes the overlapping writes.
func (w *Worker[T]) FetchOnce(ctx context.Context) Sample[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	sample := w.safeFetch(ctx)
	w.state.SetCurrent(sample)
	return sample
}

// Current returns a snapshot copy of the latest sample.
//
// If no fetch has completed yet, the zero sample (Valid=false) is returned.
func (w *Worker[T]) Current() Sample[T] {
	s, _ := w.state.Current()
	return s
}

// History returns an ordered snapshot of retained samples, oldest first.
func (w *Worker[T]) History() []Sample[T] {
	return w.state.History()
}

// HistorySize returns the fixed capacity of the history ring.
func (w *Worker[T]) HistorySize() int {
	return w.state.Capacity()
}

// run is the loop body. It exits when ctx is cancelled, never on fetch
// failure.
func (w *Worker[T]) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			break
		}

		sample := w.safeFetch(ctx)

		// a stop may have been requested while the fetch was in flight;
		// results that lose that race are discarded, never written
		if ctx.Err() != nil {
			w.logger.Debug("stop requested during fetch, discarding result", "worker", w.name)
			break
		}

		if sample.Valid {
			w.state.SetCurrent(sample)
			w.state.Push(sample)
			w.notifySafe(sample)
		} else {
			w.logger.Warn("poll failed", "worker", w.name, "error", sample.Err)
		}

		if !Sleep(ctx, w.interval) {
			break
		}
	}

	w.logger.Debug("poll loop exited", "worker", w.name)
}

// safeFetch calls the fetcher with panic recovery.
//
// If the fetcher panics, the full stack is logged with a correlation ID and
// an invalid sample carrying the ID is returned, so a misbehaving fetcher
// degrades to an ordinary failed poll.
func (w *Worker[T]) safeFetch(ctx context.Context) (sample Sample[T]) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			w.logger.Error("fetcher panic",
				"worker", w.name,
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			sample = Sample[T]{
				Err:       fmt.Errorf("fetcher panic (correlation_id: %s)", correlationID),
				FetchedAt: time.Now(),
			}
		}
	}()
	return w.fetch(ctx)
}

// notifySafe invokes the notifier with panic recovery. Panics are logged
// but do not propagate into the loop.
func (w *Worker[T]) notifySafe(sample Sample[T]) {
	if w.notify == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("notifier panicked", "worker", w.name, "panic", r)
		}
	}()
	w.notify(sample)
}

// Sleep waits for d or until ctx is cancelled, whichever comes first.
//
// It reports true if the full duration elapsed and false if the wait was
// cut short by cancellation. This is the interruptible delay primitive the
// worker uses between polls.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
