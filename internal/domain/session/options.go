package session

import (
	model "github.com/okian/touchline/internal/domain/model"
)

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithPreferences sets the coach preferences the session starts with.
func WithPreferences(p model.CoachPreferences) Option {
	return func(s *Session) {
		s.prefs = p.Apply(model.PreferencesPatch{})
	}
}

// WithMatchContext sets the initial match context.
func WithMatchContext(c model.MatchContext) Option {
	return func(s *Session) {
		s.matchCtx = c.Apply(model.ContextPatch{})
	}
}

// WithGenerator overrides the insight generator.
func WithGenerator(g Generator) Option {
	return func(s *Session) {
		if g != nil {
			s.generator = g
		}
	}
}
