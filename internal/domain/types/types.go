// Package types contains common types used across the application
package types

import (
	"time"

	model "github.com/okian/touchline/internal/domain/model"
	stats "github.com/okian/touchline/internal/domain/stats"
)

// StatusReport is the live view of a session returned by status queries.
type StatusReport struct {
	SessionID      string                  `json:"session_id"`
	Status         string                  `json:"status"`
	Phase          model.MatchPhase        `json:"phase"`
	UptimeSeconds  float64                 `json:"uptime_seconds"`
	ClientCount    int                     `json:"client_count"`
	EventCount     int                     `json:"event_count"`
	RecentInsights []model.CoachingInsight `json:"recent_insights,omitempty"`
	Stats          stats.Summary           `json:"stats"`
}

// Snapshot is the immutable record emitted when a session ends. It is the
// handoff format for external archival.
type Snapshot struct {
	SessionID       string        `json:"session_id"`
	MatchID         string        `json:"match_id"`
	CreatedAt       time.Time     `json:"created_at"`
	EndedAt         time.Time     `json:"ended_at"`
	DurationSeconds float64       `json:"duration_seconds"`
	EventCount      int           `json:"event_count"`
	ClientCount     int           `json:"client_count"`
	Stats           stats.Summary `json:"stats"`
}
