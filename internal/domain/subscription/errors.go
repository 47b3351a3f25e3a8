package subscription

import "errors"

// Sentinel kinds for subscription errors.
var (
	ErrNotFound          = errors.New("subscription not found")
	ErrInvalidDescriptor = errors.New("invalid subscription descriptor")
)
