// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	service "github.com/okian/mimicoo/internal/app"
	"github.com/okian/mimicoo/internal/domain/model"
	"github.com/okian/mimicoo/internal/domain/practice"
	"github.com/okian/mimicoo/pkg/logger"
)

// Request size limits.
const (
	maxJSONBytes      = 64 << 10
	maxRecordingBytes = 25 << 20
	maxUploadBytes    = 50 << 20
)

// Practice is the practice session surface used by the handlers.
type Practice interface {
	CreateSession(ctx context.Context, ageCategory string) (practice.View, error)
	Session(ctx context.Context, id string) (practice.View, error)
	DeleteSession(ctx context.Context, id string) error
	NewChallenge(ctx context.Context, id, sentence string) (practice.View, error)
	StartRecording(ctx context.Context, id string, permissionGranted bool) (practice.View, error)
	StopRecording(ctx context.Context, id string, audio []byte, mimeType string) (practice.View, error)
	ResetSession(ctx context.Context, id string) (practice.View, error)
	SubmitAnalysis(ctx context.Context, id, idempotencyKey string) (service.Ticket, error)
}

// Screening is the baseline upload and report surface.
type Screening interface {
	UploadBaseline(ctx context.Context, in service.UploadInput) (model.UploadResponse, error)
	Report(ctx context.Context, id string) (filename, body string, err error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Practice
	Screening
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	sessionsHandler  *SessionsHandler
	analyzeHandler   *AnalyzeHandler
	screeningHandler *ScreeningHandler
	ws               http.Handler
	logger           logger.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithWebSocket mounts h at /ws.
func WithWebSocket(h http.Handler) ServerOption {
	return func(s *Server) { s.ws = h }
}

// WithLogger sets the logger used for handler failures.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...ServerOption) *Server {
	s := &Server{logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.sessionsHandler = NewSessionsHandler(deps, s.logger)
	s.analyzeHandler = NewAnalyzeHandler(deps, s.logger)
	s.screeningHandler = NewScreeningHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	sh := s.sessionsHandler
	mux.HandleFunc("POST /sessions", MetricsMiddleware(sh.HandleCreate, "sessions"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(sh.HandleGet, "sessions"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(sh.HandleDelete, "sessions"))
	mux.HandleFunc("POST /sessions/{id}/challenge", MetricsMiddleware(sh.HandleChallenge, "challenge"))
	mux.HandleFunc("POST /sessions/{id}/recording/start", MetricsMiddleware(sh.HandleStartRecording, "recording"))
	mux.HandleFunc("POST /sessions/{id}/recording/stop", MetricsMiddleware(sh.HandleStopRecording, "recording"))
	mux.HandleFunc("POST /sessions/{id}/reset", MetricsMiddleware(sh.HandleReset, "sessions"))
	mux.HandleFunc("POST /sessions/{id}/analyze", MetricsMiddleware(s.analyzeHandler.HandleAnalyze, "analyze"))

	mux.HandleFunc("POST /upload-base-audio", MetricsMiddleware(s.screeningHandler.HandleUpload, "upload"))
	mux.HandleFunc("GET /reports/{id}", MetricsMiddleware(s.screeningHandler.HandleReport, "reports"))

	if s.ws != nil {
		mux.Handle("GET /ws", s.ws)
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail classifies err and writes it. Server-side failures are logged.
func fail(ctx context.Context, w http.ResponseWriter, log logger.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.Error(err))
	}
	writeError(w, status, code, err)
}

// decodeJSON decodes an optional JSON body into v. An empty body leaves v
// untouched.
func decodeJSON(op string, r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
