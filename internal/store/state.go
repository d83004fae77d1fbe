package store

import (
	"sync"
)

// State is a thread-safe container for the latest polled value and a
// bounded history of earlier values.
//
// State serializes all cross-goroutine access to polling results: a single
// writer (the polling worker) updates it, while any number of readers take
// snapshot copies through the accessor methods. The internal mutex is held
// only for in-memory copies, never across I/O or callbacks, so lock hold
// times are bounded and readers never stall behind a slow network call.
//
// History is a fixed-capacity FIFO ring: once full, pushing a new value
// evicts the oldest. Capacity is set at construction and does not grow.
type State[T any] struct {
	mu      sync.Mutex
	current T
	hasCur  bool

	ring []T
	head int // index of the oldest element
	size int
}

// New creates a [State] with the given history capacity.
//
// A capacity of zero or less disables history: Push becomes a no-op and
// History always returns an empty slice. The current-value slot is
// unaffected by capacity.
func New[T any](capacity int) *State[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &State[T]{
		ring: make([]T, capacity),
	}
}

// Capacity returns the fixed history capacity set at construction.
func (s *State[T]) Capacity() int {
	return len(s.ring)
}

// SetCurrent replaces the current value.
//
// SetCurrent stores a copy of v; the caller retains no shared reference
// into the state after the call returns.
func (s *State[T]) SetCurrent(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = v
	s.hasCur = true
}

// Current returns a copy of the current value.
//
// The second return value reports whether a value has ever been stored;
// if false, the first return value is the zero value of T.
func (s *State[T]) Current() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current, s.hasCur
}

// Push appends v to the history ring, evicting the oldest entry if the
// ring is at capacity.
//
// Push is O(1). Callers are expected to push only values worth retaining;
// the ring itself does not filter.
func (s *State[T]) Push(v T) {
	if len(s.ring) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.size < len(s.ring) {
		s.ring[(s.head+s.size)%len(s.ring)] = v
		s.size++
		return
	}

	// full: overwrite the oldest slot and advance the head
	s.ring[s.head] = v
	s.head = (s.head + 1) % len(s.ring)
}

// History returns an ordered copy of the ring contents, oldest first.
//
// The returned slice is owned by the caller; modifying it does not affect
// the state. An empty ring yields a non-nil empty slice.
func (s *State[T]) History() []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]T, s.size)
	for i := 0; i < s.size; i++ {
		out[i] = s.ring[(s.head+i)%len(s.ring)]
	}
	return out
}

// Len returns the number of entries currently held in history.
func (s *State[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.size
}
