package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/tmplkit/tmplkit/internal/handler/dto"
)

// writeEnvelope serializes an envelope with the matching HTTP status.
func writeEnvelope(w http.ResponseWriter, env dto.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.ResponseCode)
	_ = json.NewEncoder(w).Encode(env)
}
