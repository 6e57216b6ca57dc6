package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/afikmenashe/roadcrew/internal/apperr"
)

// writeError maps an error kind to an HTTP status and writes it.
// Unclassified errors are logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperr.ErrPermission):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, apperr.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, apperr.ErrAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		slog.Error("Request failed", "operation", operation, "error", err)
		http.Error(w, "Failed to "+operation, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// parseLimit reads the optional limit parameter, clamped to maxListLimit.
func parseLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	if n > maxListLimit {
		n = maxListLimit
	}
	return n, true
}
