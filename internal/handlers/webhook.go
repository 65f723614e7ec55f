package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/nahidhasan98/ghe-as3-relay/internal/errors"
	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
)

const (
	eventPush = "push"
	eventPing = "ping"

	// AcceptedMessage acknowledges a push to the webhook client
	AcceptedMessage = "Thanks for the message, GitHub Enterprise!"
)

// GitHubWebhook receives GitHub Enterprise webhook deliveries. Pushes are
// acknowledged as soon as they validate and are processed in the background.
func (h *Handler) GitHubWebhook(w http.ResponseWriter, r *http.Request) {
	event := r.Header.Get("X-GitHub-Event")
	if event == "" {
		event = eventPush
	}

	switch event {
	case eventPing:
		h.metrics.Webhook(event, "pong")
		h.writeJSON(w, models.MessageResponse{Message: "pong"}, http.StatusOK)
		return
	case eventPush:
	default:
		h.log.Infof("Ignoring GitHub Enterprise %q event", event)
		h.metrics.Webhook(event, "ignored")
		h.writeJSON(w, models.MessageResponse{Message: "Event " + event + " ignored"}, http.StatusOK)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.metrics.Webhook(event, "rejected")
		h.writeAppError(w, errors.InvalidRequest("Failed to read request body: "+err.Error()))
		return
	}

	var ev models.PushEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		h.metrics.Webhook(event, "rejected")
		h.writeAppError(w, errors.MalformedPayload("Invalid webhook payload: "+err.Error()))
		return
	}

	if appErr := h.validator.ValidatePushEvent(&ev); appErr != nil {
		h.metrics.Webhook(event, "rejected")
		h.writeAppError(w, appErr)
		return
	}

	settings, _, err := h.store.Settings(r.Context())
	if err != nil {
		h.metrics.Webhook(event, "error")
		h.writeAppError(w, errors.DatabaseError(err))
		return
	}

	h.log.Infof("Message received from GitHub Enterprise repo: %s", ev.GetRepositoryName())
	h.log.Debugf("Push %s..%s on %s touched %+v", ev.Before, ev.GetHeadCommitID(), ev.GetBranch(), ev.GetFileChangeSummary())

	if err := h.relay.Accept(r.Context(), settings, &ev, h.now()); err != nil {
		if errors.CodeOf(err) == errors.ErrCodeUnavailable {
			h.metrics.Webhook(event, "rejected")
			h.writeAppError(w, errors.Unavailable("Relay is shutting down"))
			return
		}
		h.log.Error("Failed to record push state", err)
	}

	h.metrics.Webhook(event, "accepted")
	h.writeJSON(w, models.MessageResponse{Message: AcceptedMessage}, http.StatusOK)
}
