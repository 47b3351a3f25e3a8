// Package insight turns match events into coaching insight drafts through
// an explicit dispatch table of per-tag rules. Rules are pure functions;
// extending the engine with a new event tag is a table entry, not a code
// path change.
package insight

import (
	"fmt"

	model "github.com/okian/touchline/internal/domain/model"
)

// GeneratorFunc produces zero or more drafts for one event. Implementations
// must be pure: no I/O, no shared state, same output for the same input.
type GeneratorFunc func(event model.MatchEvent, snap model.ContextSnapshot) ([]model.InsightDraft, error)

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithRule installs or replaces the rule for an event tag.
func WithRule(tag model.EventType, fn GeneratorFunc) Option {
	return func(r *Registry) {
		if tag != "" && fn != nil {
			r.rules[tag] = fn
		}
	}
}

// Registry maps event tags to their generator rules. The zero table built
// by NewRegistry covers every known tag.
type Registry struct {
	rules map[model.EventType]GeneratorFunc
}

// NewRegistry creates a registry with the default rule table installed.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		rules: map[model.EventType]GeneratorFunc{
			model.EventGoal:            goalRule,
			model.EventSubstitution:    substitutionRule,
			model.EventCard:            cardRule,
			model.EventTacticalChange:  tacticalChangeRule,
			model.EventInjury:          injuryRule,
			model.EventFormationChange: formationChangeRule,
			model.EventMomentumShift:   momentumShiftRule,
		},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Generate runs the rule registered for the event's tag. Unknown tags
// yield no drafts and no error. A rule that returns an error or panics
// surfaces as ErrGeneratorFault with no drafts; the caller decides how
// loudly to log it.
func (r *Registry) Generate(event model.MatchEvent, snap model.ContextSnapshot) (drafts []model.InsightDraft, err error) {
	fn, ok := r.rules[event.Type]
	if !ok {
		return nil, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			drafts = nil
			err = fmt.Errorf("%w: rule for %q panicked: %v", ErrGeneratorFault, event.Type, rec)
		}
	}()

	drafts, err = fn(event, snap)
	if err != nil {
		return nil, fmt.Errorf("%w: rule for %q: %v", ErrGeneratorFault, event.Type, err)
	}
	return drafts, nil
}
