package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	sessions "github.com/youwol/cdn-sessions-storage"
	"github.com/youwol/cdn-sessions-storage/auth"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrIssuerUnreachable):
		WriteError(w, http.StatusServiceUnavailable, ReasonIssuerUnreachable, "Authentication service temporarily unavailable")
	case errors.Is(err, sessions.ErrUpstreamRejected):
		slog.Error("storage rejected service credentials", "error", err)
		WriteError(w, http.StatusServiceUnavailable, ReasonStorageRejected, "Storage service temporarily unavailable")
	case errors.Is(err, auth.ErrCredentialInvalid):
		WriteError(w, http.StatusUnauthorized, ReasonCredentialInvalid, "Invalid or expired credentials")
	case errors.Is(err, auth.ErrNoCredentials), errors.Is(err, sessions.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, ReasonNotAuthenticated, "Authentication required")
	case errors.Is(err, sessions.ErrNotFound):
		WriteError(w, http.StatusNotFound, ReasonNotFound, "Session not found")
	case errors.Is(err, sessions.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, ReasonInvalidInput, "Invalid session key or document")
	default:
		slog.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, ReasonInternal, "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
