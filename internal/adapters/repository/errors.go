package repository

import "errors"

// Sentinel kinds for session store errors.
var (
	ErrNotFound         = errors.New("session not found")
	ErrDuplicateID      = errors.New("session id already registered")
	ErrCapacityExceeded = errors.New("session capacity exceeded")
)
