package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingFetcher returns a fetcher that produces valid, strictly increasing
// int samples and the counter it increments on every call.
func countingFetcher() (Fetcher[int], *atomic.Int64) {
	var calls atomic.Int64
	fetch := func(ctx context.Context) Sample[int] {
		n := calls.Add(1)
		return Sample[int]{Value: int(n), Valid: true, FetchedAt: time.Now()}
	}
	return fetch, &calls
}

// failingFetcher always reports a transient failure.
func failingFetcher(calls *atomic.Int64) Fetcher[int] {
	return func(ctx context.Context) Sample[int] {
		calls.Add(1)
		return Sample[int]{Err: errors.New("connection refused"), FetchedAt: time.Now()}
	}
}

// TestWorker_StopBeforeStart verifies that calling Stop() on a worker that
// was never started does not panic and is a safe no-op.
func TestWorker_StopBeforeStart(t *testing.T) {
	fetch, _ := countingFetcher()
	w := New(fetch, Options[int]{Name: "test", Interval: time.Minute, Logger: testLogger()})

	// this must not panic
	w.Stop()

	if w.IsRunning() {
		t.Error("IsRunning() = true, want false")
	}
}

// TestWorker_StopTwice verifies that Stop() is idempotent and can be called
// multiple times without panic or deadlock.
func TestWorker_StopTwice(t *testing.T) {
	fetch, _ := countingFetcher()
	w := New(fetch, Options[int]{Name: "test", Interval: time.Minute, Logger: testLogger()})
	w.Start(context.Background())

	// both calls must complete without panic or deadlock
	w.Stop()
	w.Stop()
}

// TestWorker_Lifecycle verifies the normal Start/Stop cycle and the
// IsRunning transitions around it.
func TestWorker_Lifecycle(t *testing.T) {
	fetch, calls := countingFetcher()
	w := New(fetch, Options[int]{Name: "test", Interval: time.Minute, HistorySize: 10, Logger: testLogger()})

	if w.IsRunning() {
		t.Fatal("IsRunning() = true before Start")
	}

	w.Start(context.Background())
	if !w.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}

	// the first fetch happens immediately, not after one interval
	waitFor(t, time.Second, func() bool { return calls.Load() >= 1 })

	w.Stop()
	if w.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}

	cur := w.Current()
	if !cur.Valid {
		t.Error("Current().Valid = false after a successful poll")
	}
}

// TestWorker_StartTwice verifies that Start() is idempotent: a second call
// must not spawn a second loop, observed via the fetch counter staying
// linear in elapsed intervals rather than doubling.
func TestWorker_StartTwice(t *testing.T) {
	fetch, calls := countingFetcher()
	w := New(fetch, Options[int]{Name: "test", Interval: 20 * time.Millisecond, HistorySize: 100, Logger: testLogger()})

	w.Start(context.Background())
	w.Start(context.Background()) // must be a no-op

	time.Sleep(110 * time.Millisecond)
	w.Stop()

	// a single loop fires roughly every 20ms: ~6 fetches in 110ms.
	// two loops would roughly double that.
	got := calls.Load()
	if got < 3 || got > 9 {
		t.Errorf("fetch count = %d over 110ms at 20ms interval, want 3..9 (single loop)", got)
	}

	// history entries must be strictly consecutive, which two interleaved
	// loops sharing one counter would also violate
	hist := w.History()
	for i := 1; i < len(hist); i++ {
		if hist[i].Value != hist[i-1].Value+1 {
			t.Errorf("History()[%d].Value = %d, want %d", i, hist[i].Value, hist[i-1].Value+1)
		}
	}
}

// TestWorker_StopInterruptsSleep verifies that Stop() returns promptly even
// when the loop is mid-sleep on a long interval.
func TestWorker_StopInterruptsSleep(t *testing.T) {
	fetch, calls := countingFetcher()
	w := New(fetch, Options[int]{Name: "test", Interval: 5 * time.Second, Logger: testLogger()})

	w.Start(context.Background())
	waitFor(t, time.Second, func() bool { return calls.Load() >= 1 })

	start := time.Now()
	w.Stop()
	elapsed := time.Since(start)

	if elapsed > time.Second {
		t.Errorf("Stop() took %v with a 5s interval, want well under 1s", elapsed)
	}
}

// TestWorker_NoNotifierAfterStop verifies that once Stop() has returned,
// the notifier invocation count stays stable across a wait longer than
// one polling interval.
func TestWorker_NoNotifierAfterStop(t *testing.T) {
	var notified atomic.Int64
	fetch, _ := countingFetcher()
	w := New(fetch, Options[int]{
		Name:     "test",
		Interval: 20 * time.Millisecond,
		Notifier: func(Sample[int]) { notified.Add(1) },
		Logger:   testLogger(),
	})

	w.Start(context.Background())
	waitFor(t, time.Second, func() bool { return notified.Load() >= 2 })
	w.Stop()

	before := notified.Load()
	time.Sleep(60 * time.Millisecond)
	after := notified.Load()

	if before != after {
		t.Errorf("notifier count moved from %d to %d after Stop()", before, after)
	}
}

// TestWorker_IntervalPacing verifies that fetches happen once per interval,
// with boundary-tolerant bounds to absorb scheduling jitter.
func TestWorker_IntervalPacing(t *testing.T) {
	fetch, calls := countingFetcher()
	w := New(fetch, Options[int]{Name: "test", Interval: 50 * time.Millisecond, Logger: testLogger()})

	w.Start(context.Background())
	time.Sleep(220 * time.Millisecond)
	w.Stop()

	got := calls.Load()
	if got < 3 || got > 6 {
		t.Errorf("fetch count = %d over 220ms at 50ms interval, want 3..6", got)
	}
}

// TestWorker_FailedPollsKeepRunning verifies that fetch failures neither
// stop the loop nor pollute current value or history.
func TestWorker_FailedPollsKeepRunning(t *testing.T) {
	var calls atomic.Int64
	w := New(failingFetcher(&calls), Options[int]{
		Name:        "test",
		Interval:    10 * time.Millisecond,
		HistorySize: 10,
		Logger:      testLogger(),
	})

	w.Start(context.Background())
	// loop must survive several consecutive failures
	waitFor(t, time.Second, func() bool { return calls.Load() >= 3 })
	w.Stop()

	if cur := w.Current(); cur.Valid {
		t.Error("Current().Valid = true when every fetch failed")
	}
	if got := len(w.History()); got != 0 {
		t.Errorf("History() = %d entries when every fetch failed, want 0", got)
	}
}

// TestWorker_LastValidValueRetained verifies that a failure streak does not
// clobber the last successfully fetched value.
func TestWorker_LastValidValueRetained(t *testing.T) {
	var calls atomic.Int64
	fetch := func(ctx context.Context) Sample[int] {
		n := calls.Add(1)
		if n == 1 {
			return Sample[int]{Value: 42, Valid: true, FetchedAt: time.Now()}
		}
		return Sample[int]{Err: errors.New("timeout"), FetchedAt: time.Now()}
	}
	w := New(fetch, Options[int]{Name: "test", Interval: 10 * time.Millisecond, HistorySize: 10, Logger: testLogger()})

	w.Start(context.Background())
	waitFor(t, time.Second, func() bool { return calls.Load() >= 4 })
	w.Stop()

	cur := w.Current()
	if !cur.Valid || cur.Value != 42 {
		t.Errorf("Current() = {Value:%d Valid:%v}, want the last valid value 42", cur.Value, cur.Valid)
	}
	if got := len(w.History()); got != 1 {
		t.Errorf("History() = %d entries, want 1", got)
	}
}

// TestWorker_FetchOnce verifies that a one-shot fetch updates the current
// value (valid or not) but never history, and never fires the notifier.
func TestWorker_FetchOnce(t *testing.T) {
	var notified atomic.Int64
	fetch, calls := countingFetcher()
	w := New(fetch, Options[int]{
		Name:        "test",
		Interval:    time.Minute,
		HistorySize: 10,
		Notifier:    func(Sample[int]) { notified.Add(1) },
		Logger:      testLogger(),
	})

	got := w.FetchOnce(context.Background())
	if !got.Valid || got.Value != 1 {
		t.Errorf("FetchOnce() = {Value:%d Valid:%v}, want {Value:1 Valid:true}", got.Value, got.Valid)
	}
	if calls.Load() != 1 {
		t.Errorf("fetch count = %d, want 1", calls.Load())
	}

	cur := w.Current()
	if cur.Value != 1 {
		t.Errorf("Current().Value = %d, want 1", cur.Value)
	}
	if len(w.History()) != 0 {
		t.Errorf("History() = %d entries after FetchOnce, want 0", len(w.History()))
	}
	if notified.Load() != 0 {
		t.Errorf("notifier fired %d times for FetchOnce, want 0", notified.Load())
	}
}

// TestWorker_FetchOnceFailureUpdatesCurrent verifies that a failed one-shot
// fetch still replaces the current value with an invalid sample, so readers
// see the outcome of the most recent on-demand fetch.
func TestWorker_FetchOnceFailureUpdatesCurrent(t *testing.T) {
	var calls atomic.Int64
	w := New(failingFetcher(&calls), Options[int]{Name: "test", Interval: time.Minute, HistorySize: 10, Logger: testLogger()})

	got := w.FetchOnce(context.Background())
	if got.Valid {
		t.Error("FetchOnce().Valid = true for a failing fetcher")
	}
	if got.Err == nil {
		t.Error("FetchOnce().Err = nil for a failing fetcher")
	}

	cur := w.Current()
	if cur.Valid || cur.Err == nil {
		t.Errorf("Current() = {Valid:%v Err:%v}, want invalid with error", cur.Valid, cur.Err)
	}
}

// TestWorker_DiscardsResultOnStopRace pins down the chosen side of the
// cancellation race: a fetch that completes after Stop was requested is
// discarded, never written and never notified.
func TestWorker_DiscardsResultOnStopRace(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	fetch := func(ctx context.Context) Sample[int] {
		once.Do(func() { close(entered) })
		<-release
		return Sample[int]{Value: 7, Valid: true, FetchedAt: time.Now()}
	}

	var notified atomic.Int64
	w := New(fetch, Options[int]{
		Name:        "test",
		Interval:    10 * time.Millisecond,
		HistorySize: 10,
		Notifier:    func(Sample[int]) { notified.Add(1) },
		Logger:      testLogger(),
	})

	w.Start(context.Background())
	<-entered // first fetch is now in flight

	stopDone := make(chan struct{})
	go func() {
		w.Stop()
		close(stopDone)
	}()

	// let Stop request cancellation while the fetch is still blocked,
	// then let the fetch complete
	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case <-stopDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return after the in-flight fetch completed")
	}

	if cur := w.Current(); cur.Valid {
		t.Error("Current().Valid = true, want the post-stop result discarded")
	}
	if got := len(w.History()); got != 0 {
		t.Errorf("History() = %d entries, want 0", got)
	}
	if notified.Load() != 0 {
		t.Errorf("notifier fired %d times, want 0", notified.Load())
	}
}

// TestWorker_RestartAfterStop verifies that a worker can run again after a
// clean stop, continuing over the same state.
func TestWorker_RestartAfterStop(t *testing.T) {
	fetch, calls := countingFetcher()
	w := New(fetch, Options[int]{Name: "test", Interval: 10 * time.Millisecond, HistorySize: 100, Logger: testLogger()})

	w.Start(context.Background())
	waitFor(t, time.Second, func() bool { return calls.Load() >= 1 })
	w.Stop()

	first := calls.Load()

	w.Start(context.Background())
	if !w.IsRunning() {
		t.Fatal("IsRunning() = false after restart")
	}
	waitFor(t, time.Second, func() bool { return calls.Load() > first })
	w.Stop()

	if calls.Load() <= first {
		t.Errorf("fetch count = %d after restart, want > %d", calls.Load(), first)
	}
}

// TestWorker_ParentContextCancellation verifies that cancelling the context
// passed to Start stops the loop and that the worker can be restarted
// afterwards via Stop+Start.
func TestWorker_ParentContextCancellation(t *testing.T) {
	fetch, calls := countingFetcher()
	w := New(fetch, Options[int]{Name: "test", Interval: 10 * time.Millisecond, Logger: testLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	waitFor(t, time.Second, func() bool { return calls.Load() >= 1 })

	cancel()
	waitFor(t, time.Second, func() bool { return !w.IsRunning() })

	// Stop after external cancellation must still be a clean no-op join
	w.Stop()

	before := calls.Load()
	time.Sleep(40 * time.Millisecond)
	if calls.Load() != before {
		t.Errorf("fetch count moved from %d to %d after context cancellation", before, calls.Load())
	}
}

// TestWorker_PanickingFetcher verifies that a fetcher panic is converted
// into an invalid sample and the loop survives.
func TestWorker_PanickingFetcher(t *testing.T) {
	var calls atomic.Int64
	fetch := func(ctx context.Context) Sample[int] {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		return Sample[int]{Value: 1, Valid: true, FetchedAt: time.Now()}
	}
	w := New(fetch, Options[int]{Name: "test", Interval: 10 * time.Millisecond, HistorySize: 10, Logger: testLogger()})

	w.Start(context.Background())
	waitFor(t, time.Second, func() bool { return calls.Load() >= 2 })
	w.Stop()

	if cur := w.Current(); !cur.Valid {
		t.Error("Current().Valid = false, want the loop to survive a fetcher panic")
	}
}

// TestWorker_PanickingNotifier verifies that a notifier panic does not kill
// the loop or corrupt state.
func TestWorker_PanickingNotifier(t *testing.T) {
	fetch, calls := countingFetcher()
	w := New(fetch, Options[int]{
		Name:        "test",
		Interval:    10 * time.Millisecond,
		HistorySize: 10,
		Notifier:    func(Sample[int]) { panic("observer bug") },
		Logger:      testLogger(),
	})

	w.Start(context.Background())
	waitFor(t, time.Second, func() bool { return calls.Load() >= 3 })
	w.Stop()

	if got := len(w.History()); got < 3 {
		t.Errorf("History() = %d entries, want >= 3 despite notifier panics", got)
	}
}

// TestWorker_ConcurrentStartStop verifies that racing Start() against
// Stop() never panics or leaks a loop.
// Run with: go test -race ./internal/poller/...
func TestWorker_ConcurrentStartStop(t *testing.T) {
	for i := 0; i < 100; i++ {
		fetch, _ := countingFetcher()
		w := New(fetch, Options[int]{Name: "test", Interval: time.Minute, Logger: testLogger()})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			w.Start(context.Background())
		}()
		go func() {
			defer wg.Done()
			w.Stop()
		}()
		wg.Wait()

		w.Stop()
		if w.IsRunning() {
			t.Fatal("IsRunning() = true after final Stop")
		}
	}
}

// TestWorker_ConcurrentReaders runs the loop and FetchOnce against several
// snapshot readers. Run with: go test -race ./internal/poller/...
func TestWorker_ConcurrentReaders(t *testing.T) {
	fetch, _ := countingFetcher()
	w := New(fetch, Options[int]{Name: "test", Interval: time.Millisecond, HistorySize: 50, Logger: testLogger()})

	w.Start(context.Background())

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				w.FetchOnce(context.Background())
			}
		}
	}()

	for r := 0; r < 3; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					w.Current()
					w.History()
				}
			}
		}()
	}

	time.Sleep(100 * time.Millisecond)
	close(done)
	wg.Wait()
	w.Stop()
}

func TestSleep(t *testing.T) {
	t.Run("full duration elapses", func(t *testing.T) {
		start := time.Now()
		if !Sleep(context.Background(), 20*time.Millisecond) {
			t.Error("Sleep() = false without cancellation")
		}
		if time.Since(start) < 20*time.Millisecond {
			t.Error("Sleep() returned before the duration elapsed")
		}
	})

	t.Run("cancellation cuts the wait short", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		start := time.Now()
		if Sleep(ctx, 5*time.Second) {
			t.Error("Sleep() = true despite cancellation")
		}
		if time.Since(start) > time.Second {
			t.Errorf("Sleep() took %v to observe cancellation", time.Since(start))
		}
	})

	t.Run("already cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if Sleep(ctx, 5*time.Second) {
			t.Error("Sleep() = true with a pre-cancelled context")
		}
	})
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
