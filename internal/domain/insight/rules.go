package insight

import (
	model "github.com/okian/touchline/internal/domain/model"
)

// Rule thresholds on the match clock.
const (
	lateGoalMinute = 80 // goals after this minute escalate to critical
	freshLegMinute = 70 // momentum swings after this minute suggest a substitution
)

// Rule confidence levels, graded by how directly the trigger maps to the
// recommendation.
const (
	goalConfidence      = 0.9
	cardConfidence      = 0.85
	injuryConfidence    = 0.8
	formationConfidence = 0.75
	tacticalConfidence  = 0.7
	momentumConfidence  = 0.65
	subConfidence       = 0.6
)

// draft assembles a single-template draft with its rule provenance.
func draft(t model.InsightType, u model.Urgency, confidence float64, key string, args ...any) model.InsightDraft {
	return model.InsightDraft{
		Type:         t,
		Content:      render(key, "en", args...),
		Urgency:      u,
		Confidence:   confidence,
		TemplateKey:  key,
		TemplateArgs: args,
		Sources: []model.Provenance{
			{Kind: model.SourceRule, SourceID: key, Confidence: confidence},
		},
	}
}

// homeConceded reports whether the home side, the side the session
// coaches, conceded the goal. Feeds label teams either literally as
// "home"/"away" or by the team name from the match context.
func homeConceded(event model.MatchEvent, snap model.ContextSnapshot) bool {
	if v := event.Metadata[model.MetaConcedingTeam]; v != "" {
		return v == "home" || (snap.HomeTeam != "" && v == snap.HomeTeam)
	}
	if v := event.Metadata[model.MetaScoringTeam]; v != "" {
		return v == "away" || (snap.AwayTeam != "" && v == snap.AwayTeam)
	}
	return false
}

// playerLabel names the player an event concerns, with a neutral fallback
// for feeds that omit it.
func playerLabel(event model.MatchEvent) string {
	if event.PlayerID != "" {
		return event.PlayerID
	}
	return "the player"
}

func goalRule(event model.MatchEvent, snap model.ContextSnapshot) ([]model.InsightDraft, error) {
	urgency := model.UrgencyHigh
	if event.MatchMinute > lateGoalMinute {
		urgency = model.UrgencyCritical
	}

	if homeConceded(event, snap) {
		d := draft(model.InsightTacticalAdjustment, urgency, goalConfidence,
			"goal.seek_equalizer", event.MatchMinute)
		d.Actions = []model.ActionItem{
			{Action: "Push numbers forward at set pieces", Timeline: model.TimelineImmediate, EstimatedImpact: "high"},
			{Action: "Warm up an attacking substitute", Timeline: model.TimelineNextBreak},
		}
		return []model.InsightDraft{d}, nil
	}

	d := draft(model.InsightTacticalAdjustment, urgency, goalConfidence,
		"goal.defend_momentum", event.MatchMinute)
	d.Actions = []model.ActionItem{
		{Action: "Compact the midfield block", Timeline: model.TimelineImmediate, EstimatedImpact: "medium"},
	}
	return []model.InsightDraft{d}, nil
}

func cardRule(event model.MatchEvent, snap model.ContextSnapshot) ([]model.InsightDraft, error) {
	player := playerLabel(event)

	if event.Metadata[model.MetaCardColor] == "red" {
		d := draft(model.InsightTacticalAdjustment, model.UrgencyHigh, cardConfidence,
			"card.reshape", player)
		d.Actions = []model.ActionItem{
			{Action: "Shift to a back three", Timeline: model.TimelineImmediate, EstimatedImpact: "high"},
			{Action: "Warm up a defensive substitute", Timeline: model.TimelineNextBreak},
		}
		return []model.InsightDraft{d}, nil
	}

	d := draft(model.InsightDisciplineWarning, model.UrgencyMedium, cardConfidence,
		"card.discipline", player)
	d.Actions = []model.ActionItem{
		{Action: "Shield the booked player from direct duels", Timeline: model.TimelineImmediate},
	}
	return []model.InsightDraft{d}, nil
}

func substitutionRule(event model.MatchEvent, snap model.ContextSnapshot) ([]model.InsightDraft, error) {
	player := event.Metadata[model.MetaPlayerOn]
	if player == "" {
		player = "a fresh player"
	}
	d := draft(model.InsightTacticalAdjustment, model.UrgencyLow, subConfidence,
		"substitution.matchups", player)
	return []model.InsightDraft{d}, nil
}

func tacticalChangeRule(event model.MatchEvent, snap model.ContextSnapshot) ([]model.InsightDraft, error) {
	d := draft(model.InsightTacticalAdjustment, model.UrgencyMedium, tacticalConfidence,
		"tactical.rebalance")
	d.Actions = []model.ActionItem{
		{Action: "Switch the press trigger to the fullbacks", Timeline: model.TimelineNextBreak},
	}
	return []model.InsightDraft{d}, nil
}

func injuryRule(event model.MatchEvent, snap model.ContextSnapshot) ([]model.InsightDraft, error) {
	player := playerLabel(event)

	assess := draft(model.InsightInjuryResponse, model.UrgencyMedium, injuryConfidence,
		"injury.assess", player)
	if event.Metadata[model.MetaSeverity] != "serious" {
		return []model.InsightDraft{assess}, nil
	}

	assess.Urgency = model.UrgencyHigh
	replace := draft(model.InsightSubstitutionSuggestion, model.UrgencyHigh, injuryConfidence,
		"injury.replace", player)
	replace.Actions = []model.ActionItem{
		{Action: "Prepare the positional replacement", Timeline: model.TimelineImmediate, EstimatedImpact: "high"},
	}
	return []model.InsightDraft{assess, replace}, nil
}

func formationChangeRule(event model.MatchEvent, snap model.ContextSnapshot) ([]model.InsightDraft, error) {
	formation := event.Metadata[model.MetaNewFormation]
	if formation == "" {
		formation = "a new shape"
	}
	d := draft(model.InsightFormationChange, model.UrgencyMedium, formationConfidence,
		"formation.counter", formation)
	d.Actions = []model.ActionItem{
		{Action: "Overload the spare zone", Timeline: model.TimelineImmediate},
	}
	return []model.InsightDraft{d}, nil
}

func momentumShiftRule(event model.MatchEvent, snap model.ContextSnapshot) ([]model.InsightDraft, error) {
	if event.Metadata[model.MetaDirection] != "against" {
		d := draft(model.InsightSetPieceOpportunity, model.UrgencyMedium, momentumConfidence,
			"momentum.press")
		d.Actions = []model.ActionItem{
			{Action: "Push numbers forward at set pieces", Timeline: model.TimelineImmediate},
		}
		return []model.InsightDraft{d}, nil
	}

	warn := draft(model.InsightMomentumWarning, model.UrgencyHigh, momentumConfidence,
		"momentum.stem")
	warn.Actions = []model.ActionItem{
		{Action: "Drop the defensive line five meters", Timeline: model.TimelineImmediate, EstimatedImpact: "medium"},
	}

	drafts := []model.InsightDraft{warn}
	if event.MatchMinute > freshLegMinute {
		fresh := draft(model.InsightSubstitutionSuggestion, model.UrgencyMedium, momentumConfidence,
			"momentum.fresh_legs")
		fresh.Actions = []model.ActionItem{
			{Action: "Warm up a defensive substitute", Timeline: model.TimelineNextBreak},
		}
		drafts = append(drafts, fresh)
	}
	return drafts, nil
}
