// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	repository "github.com/okian/touchline/internal/adapters/repository"
)

// EventsHandler handles match-event ingestion requests.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandlePostEvent handles POST /sessions/{id}/events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), req.EventID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	insights, err := h.deps.ProcessMatchEvent(r.Context(), sessionID, req.toModel())
	if err != nil {
		// Roll back the "seen" status so the event can be retried once the
		// session exists.
		if errors.Is(err, repository.ErrNotFound) {
			h.deps.Unrecord(r.Context(), req.EventID)
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, ackResponse{
		Status:   "accepted",
		Insights: insights,
	})
}
