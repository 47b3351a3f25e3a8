// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/touchline/internal/app"
	"github.com/okian/touchline/internal/domain/model"
	locale "github.com/okian/touchline/internal/locale"
)

// queryRequest mirrors the OpenAPI schema for POST /sessions/{id}/query.
type queryRequest struct {
	Query    string `json:"query"`
	Language string `json:"language,omitempty"`
	Urgency  string `json:"urgency,omitempty"`
}

func (q queryRequest) validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return errors.New("missing query")
	}
	if _, ok := model.ParseUrgency(q.Urgency); !ok {
		return errors.New("invalid urgency")
	}
	return nil
}

// QueryHandler handles coaching-query requests.
type QueryHandler struct {
	deps Dependencies
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(deps Dependencies) *QueryHandler {
	return &QueryHandler{deps: deps}
}

// HandlePostQuery handles POST /sessions/{id}/query requests.
func (h *QueryHandler) HandlePostQuery(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	lang := req.Language
	if lang == "" {
		if header := r.Header.Get("Accept-Language"); header != "" {
			lang = locale.FromAcceptLanguage(header).String()
		}
	}
	urgency, _ := model.ParseUrgency(req.Urgency)

	ins, err := h.deps.SubmitQuery(r.Context(), service.QueryRequest{
		SessionID: sessionID,
		Query:     req.Query,
		Language:  lang,
		Urgency:   urgency,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ins)
}
