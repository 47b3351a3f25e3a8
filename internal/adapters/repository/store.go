// Package repository defines the session store interface and errors.
package repository

import (
	"context"

	session "github.com/okian/touchline/internal/domain/session"
)

// Store provides access to the live coaching sessions tracked by the
// service. Implementations carry their own concurrency guard; individual
// sessions guard themselves.
type Store interface {
	// Add registers a session. Returns ErrCapacityExceeded when the
	// number of non-terminal sessions has reached the configured cap,
	// ErrDuplicateID if the id is already tracked.
	Add(ctx context.Context, s *session.Session) error

	// Get returns the session with the given id.
	// Returns ErrNotFound if the session is unknown.
	Get(ctx context.Context, id string) (*session.Session, error)

	// Remove discards a session record entirely.
	// Returns ErrNotFound if the session is unknown.
	Remove(ctx context.Context, id string) error

	// All returns every tracked session, terminal records included.
	All(ctx context.Context) []*session.Session

	// Count returns the number of tracked sessions.
	Count(ctx context.Context) int

	// ActiveCount returns the number of non-terminal sessions, the
	// quantity the capacity cap applies to.
	ActiveCount(ctx context.Context) int
}
