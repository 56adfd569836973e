package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/mimicoo/internal/app"
	"github.com/okian/mimicoo/pkg/logger"
)

// ScreeningHandler serves the baseline upload and report download.
type ScreeningHandler struct {
	deps   Screening
	logger logger.Logger
}

// NewScreeningHandler creates a new screening handler.
func NewScreeningHandler(deps Screening, l logger.Logger) *ScreeningHandler {
	return &ScreeningHandler{deps: deps, logger: l}
}

// HandleUpload handles POST /upload-base-audio with a multipart "file"
// field. The optional "session" query parameter routes progress frames.
func (h *ScreeningHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload_base_audio"
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(r.Context(), w, h.logger, WrapKind(op, ErrTooLarge, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("missing file: %w", err)))
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		fail(r.Context(), w, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}

	resp, err := h.deps.UploadBaseline(r.Context(), service.UploadInput{
		Filename:  header.Filename,
		Audio:     audio,
		SessionID: r.URL.Query().Get("session"),
	})
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleReport handles GET /reports/{id} as a plain-text download.
func (h *ScreeningHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	name, body, err := h.deps.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap("api.report", err))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}
