package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/okian/mimicoo/pkg/logger"
)

// SessionsHandler serves the practice session routes.
type SessionsHandler struct {
	deps   Practice
	logger logger.Logger
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Practice, l logger.Logger) *SessionsHandler {
	return &SessionsHandler{deps: deps, logger: l}
}

type createSessionRequest struct {
	AgeCategory string `json:"age_category"`
}

type challengeRequest struct {
	Sentence string `json:"sentence"`
}

type startRecordingRequest struct {
	PermissionGranted *bool `json:"permission_granted"`
}

// HandleCreate handles POST /sessions.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req createSessionRequest
	if err := decodeJSON(op, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	view, err := h.deps.CreateSession(r.Context(), req.AgeCategory)
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap("api.get_session", err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleDelete handles DELETE /sessions/{id}.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		fail(r.Context(), w, h.logger, Wrap("api.delete_session", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleChallenge handles POST /sessions/{id}/challenge. An empty sentence
// asks the server to generate one.
func (h *SessionsHandler) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	const op = "api.new_challenge"
	var req challengeRequest
	if err := decodeJSON(op, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	view, err := h.deps.NewChallenge(r.Context(), r.PathValue("id"), req.Sentence)
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleStartRecording handles POST /sessions/{id}/recording/start.
func (h *SessionsHandler) HandleStartRecording(w http.ResponseWriter, r *http.Request) {
	const op = "api.start_recording"
	var req startRecordingRequest
	if err := decodeJSON(op, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.PermissionGranted == nil {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("missing permission_granted")))
		return
	}
	view, err := h.deps.StartRecording(r.Context(), r.PathValue("id"), *req.PermissionGranted)
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleStopRecording handles POST /sessions/{id}/recording/stop. The body
// is the recorded audio; its Content-Type is kept as the mime type.
func (h *SessionsHandler) HandleStopRecording(w http.ResponseWriter, r *http.Request) {
	const op = "api.stop_recording"
	audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRecordingBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(r.Context(), w, h.logger, WrapKind(op, ErrTooLarge, err))
			return
		}
		fail(r.Context(), w, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}
	mime := strings.TrimSpace(r.Header.Get("Content-Type"))
	if mime == "" {
		mime = "audio/webm"
	}
	view, err := h.deps.StopRecording(r.Context(), r.PathValue("id"), audio, mime)
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleReset handles POST /sessions/{id}/reset.
func (h *SessionsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.ResetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap("api.reset_session", err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
