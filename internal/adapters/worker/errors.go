package worker

import "errors"

// Sentinel errors for this package.
var (
	ErrJobPanicked = errors.New("worker job panicked")
)
