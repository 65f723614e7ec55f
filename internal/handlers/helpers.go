package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nahidhasan98/ghe-as3-relay/internal/errors"
	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
)

// writeJSON writes a JSON response with the given status code
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("Failed to encode JSON response", err)
	}
}

// writeAppError writes an application error response
func (h *Handler) writeAppError(w http.ResponseWriter, appErr *errors.AppError) {
	response := &models.ErrorResponse{
		Error:   appErr.Message,
		Code:    string(appErr.Code),
		Details: appErr.Details,
	}

	// Log the error for internal monitoring
	h.log.With("error_code", appErr.Code).
		With("status_code", appErr.StatusCode).
		Error(appErr.Message, appErr.Err)

	h.writeJSON(w, response, appErr.StatusCode)
}

// NotFound answers unknown routes
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	appErr := errors.New(errors.ErrCodeNotFound, "Route not found")
	appErr.Details = r.Method + " " + r.URL.Path
	h.writeAppError(w, appErr)
}

// decodeJSON decodes a request body into v
func decodeJSON(r *http.Request, v interface{}) *errors.AppError {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.InvalidRequest("Invalid JSON body: " + err.Error())
	}
	return nil
}
