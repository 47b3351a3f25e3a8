// Package subscription tracks which clients observe a session and which
// insights they want delivered.
package subscription

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	model "github.com/okian/touchline/internal/domain/model"
)

// Kind selects which session outputs a subscription observes.
type Kind string

// Subscription kinds.
const (
	KindInsights Kind = "insights"
	KindStatus   Kind = "status"
	KindAll      Kind = "all"
)

// Descriptor identifies one observer's interest in a session. A session
// and client pair holds at most one descriptor; re-subscribing replaces
// it. Descriptors are treated as immutable values once registered.
type Descriptor struct {
	SessionID    string              `json:"session_id"`
	ClientID     string              `json:"client_id"`
	Kind         Kind                `json:"kind"`
	Language     string              `json:"language,omitempty"`
	MinUrgency   model.Urgency       `json:"min_urgency,omitempty"`   // zero = no urgency floor
	InsightTypes []model.InsightType `json:"insight_types,omitempty"` // empty = all types
	MatchPhases  []model.MatchPhase  `json:"match_phases,omitempty"`  // empty = all phases
}

// Matches reports whether an insight should be delivered under this
// descriptor. Every set filter clause must pass; unset clauses pass
// everything. Status-only subscriptions never match insights.
func (d Descriptor) Matches(ins model.CoachingInsight) bool {
	if d.Kind != KindInsights && d.Kind != KindAll {
		return false
	}
	if d.MinUrgency != model.UrgencyUnspecified && ins.Urgency < d.MinUrgency {
		return false
	}
	if len(d.InsightTypes) > 0 && !slices.Contains(d.InsightTypes, ins.Type) {
		return false
	}
	if len(d.MatchPhases) > 0 && !slices.Contains(d.MatchPhases, ins.MatchContext.Phase) {
		return false
	}
	return true
}

// Registry indexes descriptors by session and client. It carries its own
// lock and is safe for concurrent use, independent of any session lock.
type Registry struct {
	mu        sync.RWMutex
	bySession map[string]map[string]Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bySession: make(map[string]map[string]Descriptor),
	}
}

// Subscribe registers a descriptor, replacing any existing one for the
// same session and client pair.
func (r *Registry) Subscribe(d Descriptor) error {
	if d.SessionID == "" || d.ClientID == "" {
		return fmt.Errorf("%w: session and client ids are required", ErrInvalidDescriptor)
	}
	if d.Kind == "" {
		d.Kind = KindAll
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clients, ok := r.bySession[d.SessionID]
	if !ok {
		clients = make(map[string]Descriptor)
		r.bySession[d.SessionID] = clients
	}
	clients[d.ClientID] = d
	return nil
}

// Unsubscribe removes the descriptor for a session and client pair.
func (r *Registry) Unsubscribe(sessionID, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients, ok := r.bySession[sessionID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := clients[clientID]; !ok {
		return ErrNotFound
	}
	delete(clients, clientID)
	if len(clients) == 0 {
		delete(r.bySession, sessionID)
	}
	return nil
}

// ForSession returns the session's descriptors ordered by client id.
func (r *Registry) ForSession(sessionID string) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients, ok := r.bySession[sessionID]
	if !ok {
		return nil
	}
	out := make([]Descriptor, 0, len(clients))
	for _, d := range clients {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out
}

// DropSession removes every descriptor for a session and reports how many
// were dropped. Called when a session ends.
func (r *Registry) DropSession(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.bySession[sessionID])
	delete(r.bySession, sessionID)
	return n
}

// Count returns the total number of registered descriptors.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, clients := range r.bySession {
		n += len(clients)
	}
	return n
}
