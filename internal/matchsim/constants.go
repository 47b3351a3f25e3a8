package matchsim

import "time"

// HTTP status code constants.
const (
	StatusOK        = 200
	StatusCreated   = 201
	StatusAccepted  = 202
	StatusNoContent = 204
)

// Runner configuration constants.
const (
	DispatchDrainDelay   = 2 * time.Second
	PercentageMultiplier = 100
)

// duplicateResubmitEvery controls how often an already-submitted event is
// sent again to exercise idempotency. One in every N events is replayed.
const duplicateResubmitEvery = 10
