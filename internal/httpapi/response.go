package httpapi

import (
	"encoding/json"
	"net/http"

	errx "github.com/deckforge/server/internal/core/error"
	logx "github.com/deckforge/server/pkg/logger"
)

// APIResponse is the envelope every JSON endpoint answers with.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(APIResponse{Success: true, Data: data}); err != nil {
		logx.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps err to its status. Server errors are logged and only their
// safe message is returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errx.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	}
	writeErrorMessage(w, status, errx.MessageOf(err))
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(APIResponse{Success: false, Error: message}); err != nil {
		logx.Error().Err(err).Msg("failed to encode error response")
	}
}
