// Package server provides the HTTP API for skywatch snapshots.
//
// This package is internal to skywatch and handles all HTTP concerns:
//
//   - REST API: JSON endpoints at "/api/position", "/api/history" and
//     "/api/update" exposing the latest tracker and update-checker state
//   - Liveness: a plain-text probe at "/healthz"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the skywatch library should not need to interact with this
// package directly. The server is wired up by the skywatch CLI's serve
// command.
package server
