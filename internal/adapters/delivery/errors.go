package delivery

import "errors"

// Sentinel kinds for delivery errors.
var (
	ErrSinkFull = errors.New("delivery sink buffer full")
)
