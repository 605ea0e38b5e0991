// Package http exposes the run's operational surface: health, readiness,
// Prometheus metrics, and a summary of the last reconciliation.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/kevinlanning/2019-nCoV/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether a panel has been reconciled yet.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// StatusReporter exposes the last completed run.
type StatusReporter interface {
	LastResult() *pipeline.Result
}

// Server exposes health, readiness, metrics, and status HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /statusz routes.
func NewServer(addr string, ready ReadinessChecker, status StatusReporter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.HandleFunc("GET /statusz", handleStatus(status))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// runStatus is the /statusz response body.
type runStatus struct {
	Status              string    `json:"status"`
	PanelRows           int       `json:"panel_rows,omitempty"`
	Locations           int       `json:"locations,omitempty"`
	RecordsParsed       int       `json:"records_parsed,omitempty"`
	RecordsDropped      int       `json:"records_dropped,omitempty"`
	DuplicatesCollapsed int       `json:"duplicates_collapsed,omitempty"`
	RowsSynthesized     int       `json:"rows_synthesized,omitempty"`
	CoarseRowsDropped   int       `json:"coarse_rows_dropped,omitempty"`
	CompletedAt         time.Time `json:"completed_at,omitzero"`
}

func handleStatus(status StatusReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		result := status.LastResult()
		if result == nil {
			writeJSON(w, http.StatusOK, runStatus{Status: "idle"})
			return
		}

		locations := make(map[string]struct{})
		for _, row := range result.Panel {
			locations[row.LocationKey] = struct{}{}
		}

		writeJSON(w, http.StatusOK, runStatus{
			Status:              "complete",
			PanelRows:           len(result.Panel),
			Locations:           len(locations),
			RecordsParsed:       result.RecordsParsed,
			RecordsDropped:      result.RecordsDropped,
			DuplicatesCollapsed: result.Stats.DuplicatesCollapsed,
			RowsSynthesized:     result.Stats.RowsSynthesized,
			CoarseRowsDropped:   result.Stats.CoarseRowsDropped,
			CompletedAt:         result.CompletedAt,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
