package service

import (
	"context"
	"fmt"

	model "github.com/okian/touchline/internal/domain/model"
)

// QueryRequest carries one coaching question to the responder.
type QueryRequest struct {
	SessionID string        `json:"session_id"`
	Query     string        `json:"query"`
	Language  string        `json:"language,omitempty"`
	Urgency   model.Urgency `json:"urgency,omitempty"`
}

// QueryResponse is the responder's answer before the service wraps it
// into a query_response insight.
type QueryResponse struct {
	ResponseText  string             `json:"response_text"`
	LocalizedText string             `json:"localized_text,omitempty"`
	Confidence    float64            `json:"confidence"`
	Actions       []model.ActionItem `json:"actions,omitempty"`
	Sources       []model.Provenance `json:"sources,omitempty"`
}

// Responder answers coaching queries. Implementations typically front an
// external analysis collaborator, so the service never calls Respond
// while holding a session lock.
type Responder interface {
	Respond(ctx context.Context, req QueryRequest, snap model.ContextSnapshot) (QueryResponse, error)
}

// templateResponder is the built-in responder used when no external
// collaborator is wired. It answers from the match context alone, which
// keeps the query pipeline exercisable without outside services.
type templateResponder struct{}

// NewTemplateResponder creates the built-in context-echo responder.
func NewTemplateResponder() Responder {
	return templateResponder{}
}

func (templateResponder) Respond(_ context.Context, req QueryRequest, snap model.ContextSnapshot) (QueryResponse, error) {
	text := fmt.Sprintf(
		"Regarding %q: %s vs %s at minute %d (%s), formation %s.",
		req.Query, snap.HomeTeam, snap.AwayTeam, snap.Minute, snap.Phase, snap.Formation,
	)
	if snap.TacticalFocus != "" {
		text += fmt.Sprintf(" Current tactical focus: %s.", snap.TacticalFocus)
	}
	return QueryResponse{
		ResponseText: text,
		Confidence:   0.5,
		Sources: []model.Provenance{
			{Kind: model.SourceKnowledgeBase, SourceID: "context-echo", Confidence: 0.5},
		},
	}, nil
}
