// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	repository "github.com/okian/touchline/internal/adapters/repository"
	service "github.com/okian/touchline/internal/app"
	"github.com/okian/touchline/internal/domain/dedupe"
	"github.com/okian/touchline/internal/domain/model"
	"github.com/okian/touchline/internal/domain/session"
	"github.com/okian/touchline/internal/domain/subscription"
	"github.com/okian/touchline/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Session lifecycle.
	CreateSession(ctx context.Context, prefs model.PreferencesPatch, matchCtx model.MatchContext) (string, error)
	EndSession(ctx context.Context, id string) (types.Snapshot, error)
	PauseSession(ctx context.Context, id string) (types.StatusReport, error)
	ResumeSession(ctx context.Context, id string) (types.StatusReport, error)
	GetStatus(ctx context.Context, id string) (types.StatusReport, error)
	Remove(ctx context.Context, id string) error

	// Engine operations.
	ProcessMatchEvent(ctx context.Context, sessionID string, event model.MatchEvent) ([]model.CoachingInsight, error)
	SubmitQuery(ctx context.Context, req service.QueryRequest) (model.CoachingInsight, error)

	// Observers.
	Subscribe(ctx context.Context, d subscription.Descriptor) error
	Unsubscribe(ctx context.Context, sessionID, clientID string) error
	AddClient(ctx context.Context, sessionID, clientID string) error
	RemoveClient(ctx context.Context, sessionID, clientID string) error

	// Copy-on-write updates.
	UpdatePreferences(ctx context.Context, sessionID string, patch model.PreferencesPatch) (model.CoachPreferences, error)
	UpdateContext(ctx context.Context, sessionID string, patch model.ContextPatch) (model.MatchContext, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
	eventsHandler   *EventsHandler
	queryHandler    *QueryHandler
	observerHandler *ObserverHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		sessionsHandler: NewSessionsHandler(deps),
		eventsHandler:   NewEventsHandler(deps),
		queryHandler:    NewQueryHandler(deps),
		observerHandler: NewObserverHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/sessions", MetricsMiddleware(s.sessionsHandler.HandleCreate, "sessions"))
	mux.HandleFunc("/sessions/", MetricsMiddleware(s.routeSession, "sessions"))
}

// routeSession dispatches /sessions/{id}[/...] to the right handler. The
// mux cannot split nested resources, so the path is parsed here.
func (s *Server) routeSession(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	sessionID := parts[0]

	switch len(parts) {
	case 1:
		s.sessionsHandler.HandleSession(w, r, sessionID)
	case 2:
		switch parts[1] {
		case "events":
			s.eventsHandler.HandlePostEvent(w, r, sessionID)
		case "query":
			s.queryHandler.HandlePostQuery(w, r, sessionID)
		case "preferences":
			s.sessionsHandler.HandlePatchPreferences(w, r, sessionID)
		case "context":
			s.sessionsHandler.HandlePatchContext(w, r, sessionID)
		case "pause":
			s.sessionsHandler.HandlePause(w, r, sessionID)
		case "resume":
			s.sessionsHandler.HandleResume(w, r, sessionID)
		default:
			http.NotFound(w, r)
		}
	case 3:
		switch parts[1] {
		case "subscribers":
			s.observerHandler.HandleSubscriber(w, r, sessionID, parts[2])
		case "clients":
			s.observerHandler.HandleClient(w, r, sessionID, parts[2])
		default:
			http.NotFound(w, r)
		}
	default:
		http.NotFound(w, r)
	}
}

// createSessionRequest mirrors the OpenAPI schema for POST /sessions.
type createSessionRequest struct {
	MatchID     string                  `json:"match_id"`
	HomeTeam    string                  `json:"home_team"`
	AwayTeam    string                  `json:"away_team"`
	Formation   string                  `json:"formation,omitempty"`
	Preferences *model.PreferencesPatch `json:"preferences,omitempty"`
}

func (c createSessionRequest) validate() error {
	if strings.TrimSpace(c.MatchID) == "" {
		return errors.New("missing match_id")
	}
	return nil
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

// eventRequest mirrors the OpenAPI schema for POST /sessions/{id}/events.
type eventRequest struct {
	EventID     string            `json:"event_id"`
	Type        string            `json:"type"`
	MatchMinute int               `json:"match_minute"`
	Description string            `json:"description,omitempty"`
	TeamID      string            `json:"team_id,omitempty"`
	PlayerID    string            `json:"player_id,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	TS          string            `json:"ts,omitempty"`
}

func (e eventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.EventID) == "":
		return errors.New("missing event_id")
	case strings.TrimSpace(e.Type) == "":
		return errors.New("missing type")
	case e.MatchMinute < 0:
		return errors.New("match_minute must not be negative")
	}
	if e.TS != "" {
		if _, err := time.Parse(time.RFC3339, e.TS); err != nil {
			return errors.New("invalid ts; must be RFC3339")
		}
	}
	return nil
}

func (e eventRequest) toModel() model.MatchEvent {
	ts := time.Now().UTC()
	if e.TS != "" {
		if parsed, err := time.Parse(time.RFC3339, e.TS); err == nil {
			ts = parsed
		}
	}
	return model.MatchEvent{
		ID:          e.EventID,
		Type:        model.EventType(e.Type),
		Timestamp:   ts,
		MatchMinute: e.MatchMinute,
		Description: e.Description,
		TeamID:      e.TeamID,
		PlayerID:    e.PlayerID,
		Metadata:    e.Metadata,
	}
}

type ackResponse struct {
	Status    string                  `json:"status"`
	Duplicate bool                    `json:"duplicate"`
	Insights  []model.CoachingInsight `json:"insights,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates engine sentinel errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, subscription.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, session.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, repository.ErrCapacityExceeded):
		writeError(w, http.StatusTooManyRequests, "capacity_exceeded", err)
	case errors.Is(err, subscription.ErrInvalidDescriptor):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
