package model

import "slices"

// CoachPreferences holds per-coach delivery preferences for a session.
// Values are treated as immutable snapshots: updates go through Apply,
// which builds a new value and leaves existing readers untouched.
type CoachPreferences struct {
	Language         string        `json:"language"`                // BCP-47 tag, e.g. "es-MX"
	UrgencyThreshold Urgency       `json:"urgency_threshold"`       // insights below this are suppressed
	InsightTypes     []InsightType `json:"insight_types,omitempty"` // allow-list, empty = all
	AutoNotify       bool          `json:"auto_notify"`
}

// PreferencesPatch carries a partial preferences update. Nil fields are
// left unchanged.
type PreferencesPatch struct {
	Language         *string        `json:"language,omitempty"`
	UrgencyThreshold *Urgency       `json:"urgency_threshold,omitempty"`
	InsightTypes     *[]InsightType `json:"insight_types,omitempty"`
	AutoNotify       *bool          `json:"auto_notify,omitempty"`
}

// Apply returns a new preferences value with the patch applied. The
// receiver is never mutated; slices are cloned so the result shares no
// memory with either input.
func (p CoachPreferences) Apply(patch PreferencesPatch) CoachPreferences {
	next := p
	next.InsightTypes = slices.Clone(p.InsightTypes)
	if patch.Language != nil {
		next.Language = *patch.Language
	}
	if patch.UrgencyThreshold != nil {
		next.UrgencyThreshold = *patch.UrgencyThreshold
	}
	if patch.InsightTypes != nil {
		next.InsightTypes = slices.Clone(*patch.InsightTypes)
	}
	if patch.AutoNotify != nil {
		next.AutoNotify = *patch.AutoNotify
	}
	return next
}

// Accepts reports whether an insight of the given type and urgency clears
// the coach's preferences: the urgency must rank at or above the threshold
// and the type must be on the allow-list when one is set.
func (p CoachPreferences) Accepts(t InsightType, u Urgency) bool {
	if u < p.UrgencyThreshold {
		return false
	}
	if len(p.InsightTypes) == 0 {
		return true
	}
	return slices.Contains(p.InsightTypes, t)
}
