// Package model contains domain models passed between layers.
package model

import "time"

// EventType tags a match event with the kind of occurrence it reports.
// Tags outside this set are accepted on the wire but produce no insights.
type EventType string

// Known event tags.
const (
	EventGoal            EventType = "goal"
	EventSubstitution    EventType = "substitution"
	EventCard            EventType = "card"
	EventTacticalChange  EventType = "tactical_change"
	EventInjury          EventType = "injury"
	EventFormationChange EventType = "formation_change"
	EventMomentumShift   EventType = "momentum_shift"
)

// Metadata keys the insight rules look for on events.
const (
	MetaScoringTeam   = "scoring_team"
	MetaConcedingTeam = "conceding_team"
	MetaCardColor     = "card_color"
	MetaPlayerOn      = "player_on"
	MetaPlayerOff     = "player_off"
	MetaNewFormation  = "new_formation"
	MetaSeverity      = "severity"
	MetaDirection     = "direction"
)

// MatchEvent represents a single occurrence in a live match, submitted by
// feed clients. Events are immutable once ingested.
type MatchEvent struct {
	ID                   string            // unique id for idempotency
	Type                 EventType         // event tag, e.g. "goal"
	Timestamp            time.Time         // wall-clock time of the occurrence
	MatchMinute          int               // match clock minute
	Description          string            // human-readable description
	LocalizedDescription string            // description in the coach's language, if available
	TeamID               string            // team involved, optional
	PlayerID             string            // player involved, optional
	Metadata             map[string]string // tag-specific detail, see Meta* keys
}
