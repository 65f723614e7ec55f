package handlers

import (
	"net/http"
	"strconv"

	"github.com/nahidhasan98/ghe-as3-relay/internal/errors"
	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
)

// GetState returns the last accepted push and recent deployments
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	limit := h.historyLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			h.writeAppError(w, errors.ValidationError("Invalid limit parameter: must be between 1 and 1000"))
			return
		}
		limit = n
	}

	last, err := h.store.LastPush(r.Context())
	if err != nil {
		h.writeAppError(w, errors.DatabaseError(err))
		return
	}

	deployments, err := h.store.RecentDeployments(r.Context(), limit)
	if err != nil {
		h.writeAppError(w, errors.DatabaseError(err))
		return
	}

	h.writeJSON(w, models.StateResponse{LastPush: last, Deployments: deployments}, http.StatusOK)
}
