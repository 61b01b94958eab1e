package api

import (
	"net/http"
	"strconv"

	"github.com/garnizeh/crewboard/internal/audit"
	"github.com/garnizeh/crewboard/internal/models"
)

type AuditHandler struct {
	queue *audit.Queue
}

func NewAuditHandler(q *audit.Queue) *AuditHandler {
	return &AuditHandler{queue: q}
}

// ListRecent serves the dashboard activity feed.
func (h *AuditHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}

	events, err := h.queue.ListRecent(r.Context(), limit)
	if err != nil {
		writeJSON(w, errorResponse{Error: "failed to list audit events"}, http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []models.AuditEvent{}
	}

	writeJSON(w, events, http.StatusOK)
}
