// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/touchline/internal/domain/model"
	"github.com/okian/touchline/internal/domain/subscription"
)

// subscribeRequest carries the optional filter clauses of a subscription.
// An empty body subscribes to everything.
type subscribeRequest struct {
	Kind         string              `json:"kind,omitempty"`
	Language     string              `json:"language,omitempty"`
	MinUrgency   string              `json:"min_urgency,omitempty"`
	InsightTypes []model.InsightType `json:"insight_types,omitempty"`
	MatchPhases  []model.MatchPhase  `json:"match_phases,omitempty"`
}

// ObserverHandler handles subscriber and client attachment requests.
type ObserverHandler struct {
	deps Dependencies
}

// NewObserverHandler creates a new observer handler.
func NewObserverHandler(deps Dependencies) *ObserverHandler {
	return &ObserverHandler{deps: deps}
}

// HandleSubscriber handles PUT and DELETE /sessions/{id}/subscribers/{cid}.
func (h *ObserverHandler) HandleSubscriber(w http.ResponseWriter, r *http.Request, sessionID, clientID string) {
	switch r.Method {
	case http.MethodPut:
		var req subscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		minUrgency, ok := model.ParseUrgency(req.MinUrgency)
		if !ok {
			writeError(w, http.StatusBadRequest, "bad_request", errors.New("invalid min_urgency"))
			return
		}
		switch subscription.Kind(req.Kind) {
		case "", subscription.KindInsights, subscription.KindStatus, subscription.KindAll:
		default:
			writeError(w, http.StatusBadRequest, "bad_request", errors.New("invalid kind"))
			return
		}
		err := h.deps.Subscribe(r.Context(), subscription.Descriptor{
			SessionID:    sessionID,
			ClientID:     clientID,
			Kind:         subscription.Kind(req.Kind),
			Language:     req.Language,
			MinUrgency:   minUrgency,
			InsightTypes: req.InsightTypes,
			MatchPhases:  req.MatchPhases,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if err := h.deps.Unsubscribe(r.Context(), sessionID, clientID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

// HandleClient handles PUT and DELETE /sessions/{id}/clients/{cid}.
func (h *ObserverHandler) HandleClient(w http.ResponseWriter, r *http.Request, sessionID, clientID string) {
	switch r.Method {
	case http.MethodPut:
		if err := h.deps.AddClient(r.Context(), sessionID, clientID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if err := h.deps.RemoveClient(r.Context(), sessionID, clientID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}
