package model

import "time"

// InsightType classifies a coaching insight.
type InsightType string

// Known insight types.
const (
	InsightTacticalAdjustment     InsightType = "tactical_adjustment"
	InsightMomentumWarning        InsightType = "momentum_warning"
	InsightSubstitutionSuggestion InsightType = "substitution_suggestion"
	InsightFormationChange        InsightType = "formation_change"
	InsightInjuryResponse         InsightType = "injury_response"
	InsightDisciplineWarning      InsightType = "discipline_warning"
	InsightSetPieceOpportunity    InsightType = "set_piece_opportunity"
	InsightQueryResponse          InsightType = "query_response"
)

// ActionTimeline buckets when a recommended action should happen.
type ActionTimeline string

// Action timelines.
const (
	TimelineImmediate ActionTimeline = "immediate"
	TimelineNextBreak ActionTimeline = "next_break"
	TimelineHalfTime  ActionTimeline = "half_time"
	TimelineNextMatch ActionTimeline = "next_match"
)

// SourceKind names where an insight's content came from.
type SourceKind string

// Provenance kinds.
const (
	SourceRule          SourceKind = "rule"
	SourceKnowledgeBase SourceKind = "knowledge_base"
	SourceModel         SourceKind = "model"
)

// ActionItem is a single recommended action attached to an insight.
type ActionItem struct {
	Action          string         `json:"action"`
	LocalizedAction string         `json:"localized_action,omitempty"`
	Timeline        ActionTimeline `json:"timeline"`
	EstimatedImpact string         `json:"estimated_impact,omitempty"`
}

// Provenance records one source that contributed to an insight.
type Provenance struct {
	Kind       SourceKind `json:"kind"`
	SourceID   string     `json:"source_id"`
	Confidence float64    `json:"confidence,omitempty"`
}

// CoachingInsight is a prioritized recommendation produced for a session.
// Insights are immutable after creation; fields mirror the API schema.
type CoachingInsight struct {
	ID               string          `json:"id"`
	Type             InsightType     `json:"type"`
	Content          string          `json:"content"`
	LocalizedContent string          `json:"localized_content,omitempty"`
	Urgency          Urgency         `json:"urgency"`
	Confidence       float64         `json:"confidence"` // 0..1
	CreatedAt        time.Time       `json:"created_at"`
	MatchContext     ContextSnapshot `json:"match_context"`
	TriggerEventID   string          `json:"trigger_event_id,omitempty"`
	Actions          []ActionItem    `json:"actions,omitempty"`
	RelatedIDs       []string        `json:"related_ids,omitempty"`
	Sources          []Provenance    `json:"sources,omitempty"`
}

// InsightDraft is generator output before a session commits it. The session
// stamps identity, creation time, context snapshot, and trigger event, which
// keeps the generators pure. TemplateKey and TemplateArgs let the commit
// step render LocalizedContent in the coach's language without the
// generator knowing about preferences.
type InsightDraft struct {
	Type             InsightType
	Content          string
	LocalizedContent string
	Urgency          Urgency
	Confidence       float64
	Actions          []ActionItem
	RelatedIDs       []string
	Sources          []Provenance
	TemplateKey      string
	TemplateArgs     []any
}
