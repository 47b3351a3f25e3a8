// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/touchline/internal/domain/model"
)

// SessionsHandler handles session lifecycle requests.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleCreate handles POST /sessions requests.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var prefs model.PreferencesPatch
	if req.Preferences != nil {
		prefs = *req.Preferences
	}
	id, err := h.deps.CreateSession(r.Context(), prefs, model.MatchContext{
		MatchID:   req.MatchID,
		HomeTeam:  req.HomeTeam,
		AwayTeam:  req.AwayTeam,
		Formation: req.Formation,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: id})
}

// HandleSession handles GET and DELETE /sessions/{id} requests.
func (h *SessionsHandler) HandleSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	switch r.Method {
	case http.MethodGet:
		report, err := h.deps.GetStatus(r.Context(), sessionID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	case http.MethodDelete:
		snap, err := h.deps.EndSession(r.Context(), sessionID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	default:
		http.NotFound(w, r)
	}
}

// HandlePause handles POST /sessions/{id}/pause requests.
func (h *SessionsHandler) HandlePause(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	report, err := h.deps.PauseSession(r.Context(), sessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleResume handles POST /sessions/{id}/resume requests.
func (h *SessionsHandler) HandleResume(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	report, err := h.deps.ResumeSession(r.Context(), sessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandlePatchPreferences handles PATCH /sessions/{id}/preferences requests.
func (h *SessionsHandler) HandlePatchPreferences(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPatch {
		http.NotFound(w, r)
		return
	}
	var patch model.PreferencesPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	prefs, err := h.deps.UpdatePreferences(r.Context(), sessionID, patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// HandlePatchContext handles PATCH /sessions/{id}/context requests.
func (h *SessionsHandler) HandlePatchContext(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPatch {
		http.NotFound(w, r)
		return
	}
	var patch model.ContextPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	mctx, err := h.deps.UpdateContext(r.Context(), sessionID, patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mctx)
}
