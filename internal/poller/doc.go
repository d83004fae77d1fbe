// Package poller provides the cancellable background polling core of
// skywatch.
//
// This package is internal to skywatch. A [Worker] owns a single loop
// goroutine that periodically invokes a [Fetcher], publishes valid results
// into thread-safe shared state, and reports them to an optional
// [Notifier]. The worker guarantees deterministic shutdown: Stop joins the
// loop and interrupts any in-progress inter-poll sleep, and never blocks
// on an in-flight network call beyond its natural completion.
//
// The main components are:
//
//   - [Worker]: restartable start/stop lifecycle around one poll loop
//   - [Sample]: decoded result of one fetch, with a validity flag
//   - [Fetcher]: the network-call-and-decode collaborator contract
//   - [Notifier]: serialized per-success callback contract
//   - [Sleep]: the interruptible delay primitive
//
// Users of the skywatch library should not need to interact with this
// package directly. Configuration is done through the main skywatch
// package.
package poller
