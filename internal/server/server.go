// Package server exposes the Suryalive HTTP API: live voice session control,
// birth-chart readings, daily horoscopes, health probes, and Prometheus
// metrics. All responses are JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"

	"github.com/suryalive/suryalive/internal/health"
	"github.com/suryalive/suryalive/internal/observe"
	"github.com/suryalive/suryalive/internal/session"
	"github.com/suryalive/suryalive/pkg/audio"
	"github.com/suryalive/suryalive/pkg/provider/live"
	"github.com/suryalive/suryalive/pkg/provider/reading"
)

// readingTimeout bounds a single reading-provider call.
const readingTimeout = 60 * time.Second

// LiveController is the subset of the session controller the API uses.
type LiveController interface {
	Start(ctx context.Context) error
	Stop()
	State() session.State
	Transcript() []live.TranscriptFragment
}

// Server routes HTTP requests to the live session controller and the reading
// provider.
type Server struct {
	controller LiveController
	readings   reading.Provider
	health     *health.Handler
	logger     *slog.Logger
	metrics    *observe.Metrics
}

// Config configures a [Server].
type Config struct {
	// Controller drives live voice sessions. Required.
	Controller LiveController

	// Readings backs the /v1/readings and /v1/horoscope endpoints. When nil
	// those endpoints return 503.
	Readings reading.Provider

	// Health serves /healthz and /readyz. When nil a handler with no
	// readiness checks is used.
	Health *health.Handler

	// Logger receives request diagnostics. Defaults to [slog.Default].
	Logger *slog.Logger

	// Metrics records API instrumentation. Defaults to
	// [observe.DefaultMetrics].
	Metrics *observe.Metrics
}

// New creates a [Server] from cfg.
func New(cfg Config) *Server {
	h := cfg.Health
	if h == nil {
		h = health.New()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Server{
		controller: cfg.Controller,
		readings:   cfg.Readings,
		health:     h,
		logger:     logger,
		metrics:    metrics,
	}
}

// Handler returns the full API handler with observability middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/live/start", s.handleLiveStart)
	mux.HandleFunc("POST /v1/live/stop", s.handleLiveStop)
	mux.HandleFunc("GET /v1/live/state", s.handleLiveState)
	mux.HandleFunc("POST /v1/readings", s.handleReading)
	mux.HandleFunc("GET /v1/horoscope/{lagna}", s.handleHoroscope)

	s.health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return observe.Middleware(s.metrics)(mux)
}

// ─── Live session ─────────────────────────────────────────────────────────────

// stateResponse is the JSON body returned by the live session endpoints.
type stateResponse struct {
	State      string            `json:"state"`
	Transcript []transcriptEntry `json:"transcript,omitempty"`
}

// transcriptEntry is one contiguous per-speaker transcript fragment.
type transcriptEntry struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

func (s *Server) handleLiveStart(w http.ResponseWriter, r *http.Request) {
	err := s.controller.Start(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, stateResponse{State: s.controller.State().String()})
	case errors.Is(err, session.ErrSessionActive):
		writeError(w, http.StatusConflict, "a live session is already running")
	case errors.Is(err, audio.ErrPermissionDenied):
		writeError(w, http.StatusServiceUnavailable, "microphone access denied")
	default:
		s.logger.Error("starting live session", "error", err)
		writeError(w, http.StatusBadGateway, "could not establish the live session")
	}
}

func (s *Server) handleLiveStop(w http.ResponseWriter, _ *http.Request) {
	s.controller.Stop()
	writeJSON(w, http.StatusOK, stateResponse{State: s.controller.State().String()})
}

func (s *Server) handleLiveState(w http.ResponseWriter, _ *http.Request) {
	fragments := s.controller.Transcript()
	entries := make([]transcriptEntry, 0, len(fragments))
	for _, f := range fragments {
		entries = append(entries, transcriptEntry{Speaker: string(f.Role), Text: f.Text})
	}
	writeJSON(w, http.StatusOK, stateResponse{
		State:      s.controller.State().String(),
		Transcript: entries,
	})
}

// ─── Readings ─────────────────────────────────────────────────────────────────

func (s *Server) handleReading(w http.ResponseWriter, r *http.Request) {
	if s.readings == nil {
		writeError(w, http.StatusServiceUnavailable, "no reading provider configured")
		return
	}

	var info reading.BirthInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if info.Name == "" || info.BirthDate == "" || info.BirthTime == "" || info.BirthPlace == "" {
		writeError(w, http.StatusBadRequest, "name, birthDate, birthTime, and birthPlace are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readingTimeout)
	defer cancel()

	began := time.Now()
	res, err := s.readings.PersonalizedReading(ctx, info)
	s.metrics.ReadingDuration.Record(ctx, time.Since(began).Seconds(),
		readingKindAttr("reading"))
	if err != nil {
		s.metrics.RecordProviderError(ctx, "reading", "reading")
		s.logger.Error("generating reading", "error", err)
		writeError(w, http.StatusBadGateway, "could not generate the reading")
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHoroscope(w http.ResponseWriter, r *http.Request) {
	if s.readings == nil {
		writeError(w, http.StatusServiceUnavailable, "no reading provider configured")
		return
	}

	lagna := r.PathValue("lagna")
	if lagna == "" {
		writeError(w, http.StatusBadRequest, "lagna is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readingTimeout)
	defer cancel()

	began := time.Now()
	text, err := s.readings.DailyHoroscope(ctx, lagna)
	s.metrics.ReadingDuration.Record(ctx, time.Since(began).Seconds(),
		readingKindAttr("horoscope"))
	if err != nil {
		s.metrics.RecordProviderError(ctx, "reading", "horoscope")
		s.logger.Error("generating horoscope", "lagna", lagna, "error", err)
		writeError(w, http.StatusBadGateway, "could not generate the horoscope")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"lagna":     lagna,
		"horoscope": text,
	})
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func readingKindAttr(kind string) metric.RecordOption {
	return metric.WithAttributes(observe.Attr("kind", kind))
}

// errorResponse is the JSON body for all error statuses.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding response"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
