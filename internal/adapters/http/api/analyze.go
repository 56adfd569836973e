package api

import (
	"net/http"
	"strings"

	"github.com/okian/mimicoo/pkg/logger"
)

// IdempotencyHeader lets clients retry a submit without scoring twice.
const IdempotencyHeader = "Idempotency-Key"

// AnalyzeHandler handles analysis submits.
type AnalyzeHandler struct {
	deps   Practice
	logger logger.Logger
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps Practice, l logger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{deps: deps, logger: l}
}

// HandleAnalyze handles POST /sessions/{id}/analyze. The result arrives on
// the WebSocket; the response only acknowledges the submit.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze"
	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))

	ticket, err := h.deps.SubmitAnalysis(r.Context(), r.PathValue("id"), key)
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	if ticket.Duplicate {
		writeJSON(w, http.StatusOK, ticket)
		return
	}
	writeJSON(w, http.StatusAccepted, ticket)
}
