package session

import (
	"fmt"
	"slices"
)

// Status is the lifecycle state of a session.
type Status int

// Session lifecycle states.
const (
	StatusInitializing Status = iota
	StatusActive
	StatusPaused
	StatusEnded
	StatusError
)

var statusNames = map[Status]string{
	StatusInitializing: "initializing",
	StatusActive:       "active",
	StatusPaused:       "paused",
	StatusEnded:        "ended",
	StatusError:        "error",
}

var statusValues = map[string]Status{
	"initializing": StatusInitializing,
	"active":       StatusActive,
	"paused":       StatusPaused,
	"ended":        StatusEnded,
	"error":        StatusError,
}

// transitions lists the legal moves out of each state. Terminal states
// have no exits.
var transitions = map[Status][]Status{
	StatusInitializing: {StatusActive, StatusError},
	StatusActive:       {StatusPaused, StatusEnded, StatusError},
	StatusPaused:       {StatusActive, StatusEnded, StatusError},
	StatusEnded:        {},
	StatusError:        {},
}

// CanTransition reports whether moving between two states is legal.
func CanTransition(from, to Status) bool {
	return slices.Contains(transitions[from], to)
}

// IsTerminal reports whether the state has no exits.
func (s Status) IsTerminal() bool {
	return s == StatusEnded || s == StatusError
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStatus maps a wire name to its state.
func ParseStatus(name string) (Status, bool) {
	s, ok := statusValues[name]
	return s, ok
}

// MarshalText encodes the status as its wire name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a wire name, rejecting unknown states.
func (s *Status) UnmarshalText(data []byte) error {
	v, ok := ParseStatus(string(data))
	if !ok {
		return fmt.Errorf("session status: unknown state %q", string(data))
	}
	*s = v
	return nil
}
