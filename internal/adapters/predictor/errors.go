package predictor

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrModelUnavailable means no predictor could be obtained: nothing is
	// configured or the configured file does not exist.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrInvalidModel means a descriptor was found but cannot serve predictions.
	ErrInvalidModel = errors.New("invalid model")

	// ErrRemote wraps failures talking to a remote scoring endpoint.
	ErrRemote = errors.New("remote predictor failed")
)
