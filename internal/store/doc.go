// Package store provides the shared state between a polling worker and
// its readers.
//
// This package is internal to skywatch and holds the latest fetched value
// plus a bounded, insertion-ordered history ring. Exactly one writer (the
// worker goroutine) mutates a [State]; readers obtain snapshot copies
// through accessor methods and never hold references into the internal
// storage.
//
// All operations are pure in-memory copies performed under a single mutex.
// No I/O and no callbacks run while the lock is held.
//
// Users of the skywatch library should not need to interact with this
// package directly. State is managed internally by the trackers.
package store
