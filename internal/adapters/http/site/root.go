// Package site serves the API landing route.
package site

import (
	"context"
	"encoding/json"
	"net/http"
)

// Landing payload.
const (
	Name   = "Mimicoo Audio Analysis API"
	Status = "running"
)

// Register attaches the landing route to mux. Only the exact root path is
// served; unknown paths fall through to the mux's 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /{$}", NewRootHandler().HandleRoot)
}

// RootHandler handles root path requests.
type RootHandler struct {
	body []byte
}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	body, _ := json.Marshal(map[string]string{"message": Name, "status": Status})
	return &RootHandler{body: body}
}

// HandleRoot handles GET / with the service banner.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.body)
}
