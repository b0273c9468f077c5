// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/tmplkit/tmplkit/internal/handler/dto"
)

// Handler serves the service banner and routing fallbacks.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Hello is a simple banner endpoint for smoke checks.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"message": "Hello from tmplkit!",
		"version": "0.1.0",
	}
	writeJSON(w, http.StatusOK, response)
}

// NotFound handles requests to unknown routes. Unknown paths get the
// same catch-all failure envelope as unexpected faults.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeFailed(w, "Unable to Process the Request")
}

// MethodNotAllowed handles requests with an unsupported method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeFailed(w, "Unable to Process the Request")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already flushed at this point; nothing to do
		_ = err
	}
}

// writeEnvelope writes an envelope with the matching HTTP status.
func writeEnvelope(w http.ResponseWriter, env dto.Envelope) {
	writeJSON(w, env.ResponseCode, env)
}

// writeSuccess writes a 200 Success envelope.
func writeSuccess(w http.ResponseWriter, data any) {
	writeEnvelope(w, dto.Success(data))
}

// writeFailed writes a 404 Failed envelope.
func writeFailed(w http.ResponseWriter, data any) {
	writeEnvelope(w, dto.Failed(data))
}
