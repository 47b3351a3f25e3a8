package model

import "slices"

// maxRecentSubstitutions bounds the substitution history kept on a context.
const maxRecentSubstitutions = 5

// MatchContext is the evolving tactical picture of a match. Like
// CoachPreferences it is copy-on-write: mutations go through Apply and
// return a new value.
type MatchContext struct {
	MatchID             string   `json:"match_id"`
	HomeTeam            string   `json:"home_team"`
	AwayTeam            string   `json:"away_team"`
	Formation           string   `json:"formation,omitempty"`
	RecentSubstitutions []string `json:"recent_substitutions,omitempty"` // most recent last, capped
	TacticalFocus       string   `json:"tactical_focus,omitempty"`
	Minute              int      `json:"minute"`
}

// ContextPatch carries a partial context update. Nil fields are left
// unchanged; Substitution appends to the bounded history.
type ContextPatch struct {
	Formation     *string `json:"formation,omitempty"`
	TacticalFocus *string `json:"tactical_focus,omitempty"`
	Minute        *int    `json:"minute,omitempty"`
	Substitution  *string `json:"substitution,omitempty"`
}

// Apply returns a new context with the patch applied. The substitution
// history is cloned and trimmed to the most recent entries.
func (c MatchContext) Apply(patch ContextPatch) MatchContext {
	next := c
	next.RecentSubstitutions = slices.Clone(c.RecentSubstitutions)
	if patch.Formation != nil {
		next.Formation = *patch.Formation
	}
	if patch.TacticalFocus != nil {
		next.TacticalFocus = *patch.TacticalFocus
	}
	if patch.Minute != nil {
		next.Minute = *patch.Minute
	}
	if patch.Substitution != nil && *patch.Substitution != "" {
		next.RecentSubstitutions = append(next.RecentSubstitutions, *patch.Substitution)
		if n := len(next.RecentSubstitutions); n > maxRecentSubstitutions {
			next.RecentSubstitutions = next.RecentSubstitutions[n-maxRecentSubstitutions:]
		}
	}
	return next
}

// ContextSnapshot is the immutable view of a context embedded in every
// insight, with the match phase derived from the minute.
type ContextSnapshot struct {
	MatchID             string     `json:"match_id"`
	HomeTeam            string     `json:"home_team"`
	AwayTeam            string     `json:"away_team"`
	Formation           string     `json:"formation,omitempty"`
	RecentSubstitutions []string   `json:"recent_substitutions,omitempty"`
	TacticalFocus       string     `json:"tactical_focus,omitempty"`
	Minute              int        `json:"minute"`
	Phase               MatchPhase `json:"phase"`
}

// Snapshot freezes the context into the view insights carry.
func (c MatchContext) Snapshot() ContextSnapshot {
	return ContextSnapshot{
		MatchID:             c.MatchID,
		HomeTeam:            c.HomeTeam,
		AwayTeam:            c.AwayTeam,
		Formation:           c.Formation,
		RecentSubstitutions: slices.Clone(c.RecentSubstitutions),
		TacticalFocus:       c.TacticalFocus,
		Minute:              c.Minute,
		Phase:               PhaseForMinute(c.Minute),
	}
}
