package repository

import (
	"context"
	"fmt"
	"sync"

	session "github.com/okian/touchline/internal/domain/session"
	"github.com/okian/touchline/pkg/metrics"
)

// defaultMaxSessions caps concurrent non-terminal sessions when no option
// overrides it.
const defaultMaxSessions = 1000

// MemoryStore implements Store with a mutex-guarded map. Capacity is
// enforced on insert against the count of non-terminal sessions, so ended
// records kept around for querying do not consume slots.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	capacity int
}

// NewMemoryStore creates an empty store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*session.Session),
		capacity: defaultMaxSessions,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	metrics.UpdateActiveSessions(0)

	return s
}

// Add registers a session, enforcing the non-terminal capacity cap before
// any bookkeeping mutates.
func (m *MemoryStore) Add(_ context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, s.ID())
	}
	if m.activeCountLocked() >= m.capacity {
		return fmt.Errorf("%w: limit %d", ErrCapacityExceeded, m.capacity)
	}

	m.sessions[s.ID()] = s
	metrics.UpdateActiveSessions(m.activeCountLocked())
	return nil
}

// Get returns the session with the given id.
func (m *MemoryStore) Get(_ context.Context, id string) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Remove discards a session record.
func (m *MemoryStore) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.sessions, id)
	metrics.UpdateActiveSessions(m.activeCountLocked())
	return nil
}

// All returns every tracked session. The slice is a copy; the sessions
// are shared.
func (m *MemoryStore) All(_ context.Context) []*session.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Count returns the number of tracked sessions.
func (m *MemoryStore) Count(_ context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ActiveCount returns the number of non-terminal sessions.
func (m *MemoryStore) ActiveCount(_ context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeCountLocked()
}

// activeCountLocked counts non-terminal sessions. Callers hold the lock.
// Session.Status takes the per-session lock, which is never held while
// calling into the store, so the ordering here is safe.
func (m *MemoryStore) activeCountLocked() int {
	n := 0
	for _, s := range m.sessions {
		if !s.Status().IsTerminal() {
			n++
		}
	}
	return n
}
