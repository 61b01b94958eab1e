package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/garnizeh/crewboard/internal/fault"
)

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeFault maps the fault taxonomy onto HTTP statuses. Storage failures
// are logged with their cause and surfaced as a generic failure.
func writeFault(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fault.ErrValidation):
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusBadRequest)
	case errors.Is(err, fault.ErrNotFound):
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusNotFound)
	case errors.Is(err, fault.ErrConflict), errors.Is(err, fault.ErrInvalidState):
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusConflict)
	default:
		logger.Error("request failed", slog.Any("err", err))
		writeJSON(w, errorResponse{Error: "internal error"}, http.StatusInternalServerError)
	}
}
