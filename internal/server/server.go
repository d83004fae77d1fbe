package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/skywatch-dev/skywatch"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 5 * time.Second

// Server exposes live tracker and update-checker snapshots over HTTP.
//
// Server provides four endpoints:
//   - GET /api/position: the latest position sample as JSON
//   - GET /api/history: retained position fixes, oldest first
//   - GET /api/update: the latest update-check outcome
//   - GET /healthz: liveness probe
//
// The server only reads snapshots; it never drives the polling workers.
// It shuts down gracefully when its start context is cancelled.
type Server struct {
	tracker    *skywatch.Tracker
	checker    *skywatch.UpdateChecker // nil when update checking is disabled
	addr       string
	httpServer *http.Server
	listenAddr string
	logger     *slog.Logger
}

// New creates an HTTP [Server] over the given tracker and checker.
//
// checker may be nil, in which case /api/update reports 404. The server
// does not listen until [Server.Start] is called.
func New(tracker *skywatch.Tracker, checker *skywatch.UpdateChecker, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		tracker: tracker,
		checker: checker,
		addr:    addr,
		logger:  logger,
	}
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns after the listener is bound, so an
// unavailable port is reported synchronously. The server runs until ctx
// is cancelled, then shuts down gracefully with a 5 second timeout.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/position", s.handlePosition)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/update", s.handleUpdate)
	mux.HandleFunc("/healthz", s.handleHealth)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", s.addr, err)
	}
	s.listenAddr = ln.Addr().String()

	s.httpServer = &http.Server{
		Handler: mux,
		// derive request contexts from the server context so cancelling
		// ctx also cancels long-running handlers
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Info("api server listening", "addr", s.listenAddr)
	return nil
}

// Addr returns the bound listen address. Useful when the configured
// address used port 0.
func (s *Server) Addr() string {
	return s.listenAddr
}

// positionResponse is the /api/position wire shape.
type positionResponse struct {
	Valid     bool               `json:"valid"`
	Position  *skywatch.Position `json:"position,omitempty"`
	FetchedAt *time.Time         `json:"fetched_at,omitempty"`
	Error     string             `json:"error,omitempty"`
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sample := s.tracker.CurrentPosition()
	resp := positionResponse{Valid: sample.Valid}
	if sample.Valid {
		pos := sample.Position
		at := sample.FetchedAt
		resp.Position = &pos
		resp.FetchedAt = &at
	} else if sample.Err != nil {
		resp.Error = sample.Err.Error()
	}

	s.writeJSON(w, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	history := s.tracker.History()
	s.writeJSON(w, map[string]any{
		"count":     len(history),
		"capacity":  s.tracker.HistorySize(),
		"positions": history,
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.checker == nil {
		http.Error(w, "Update checking disabled", http.StatusNotFound)
		return
	}

	status, ok := s.checker.LastStatus()
	if !ok {
		s.writeJSON(w, map[string]any{"checked": false})
		return
	}
	s.writeJSON(w, map[string]any{"checked": true, "status": status})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
