package handlers

import (
	"net/http"

	"github.com/nahidhasan98/ghe-as3-relay/internal/errors"
	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
)

// GetSettings returns the current settings with the token masked
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, _, err := h.store.Settings(r.Context())
	if err != nil {
		h.writeAppError(w, errors.DatabaseError(err))
		return
	}

	masked := settings.Masked()
	h.writeJSON(w, models.SettingsRequest{Config: &masked}, http.StatusOK)
}

// UpdateSettings persists new settings. Sending back the masked token keeps
// the stored one.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.SettingsRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		h.writeAppError(w, appErr)
		return
	}

	if appErr := h.validator.ValidateSettings(&req); appErr != nil {
		h.writeAppError(w, appErr)
		return
	}

	current, _, err := h.store.Settings(r.Context())
	if err != nil {
		h.writeAppError(w, errors.DatabaseError(err))
		return
	}

	updated := *req.Config
	if current.GHEAccessToken != "" && updated.GHEAccessToken == current.Masked().GHEAccessToken {
		updated.GHEAccessToken = current.GHEAccessToken
	}

	if err := h.store.SaveSettings(r.Context(), updated); err != nil {
		h.writeAppError(w, errors.DatabaseError(err))
		return
	}

	h.log.SetDebug(updated.Debug)
	h.log.Infof("Settings updated: GHE %s, debug %t", updated.GHEAddress, updated.Debug)

	masked := updated.Masked()
	h.writeJSON(w, models.SettingsRequest{Config: &masked}, http.StatusOK)
}

// ExampleSettings returns the settings shape accepted by UpdateSettings
func (h *Handler) ExampleSettings(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, models.ExampleSettings(), http.StatusOK)
}
