package handlers

import (
	"net/http"

	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
)

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := &models.HealthResponse{
		Status:    "ok",
		Database:  true,
		Timestamp: h.now().Unix(),
	}

	status := http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		h.log.Error("Database ping failed", err)
		response.Status = "degraded"
		response.Database = false
		status = http.StatusServiceUnavailable
	}

	h.writeJSON(w, response, status)
}
