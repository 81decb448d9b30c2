package estimator

import (
	"errors"

	"github.com/okian/medcost/internal/domain/insurance"
)

// Sentinel error kinds. ErrInvalidRecord is re-exported so callers of this
// package need not import insurance to classify failures.
var (
	ErrPredictor     = errors.New("predictor failed")
	ErrInvalidRecord = insurance.ErrInvalidRecord
)

// Failure kinds reported by Kind.
const (
	KindValidation = "validation"
	KindPredictor  = "predictor"
	KindInternal   = "internal"
)

// PredictorError reports a failed or malformed prediction.
type PredictorError struct {
	Reason string
	Err    error
}

func (e *PredictorError) Error() string {
	msg := ErrPredictor.Error() + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PredictorError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrPredictor.
func (e *PredictorError) Is(target error) bool { return target == ErrPredictor }

// Kind classifies an Estimate error for reporting.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRecord):
		return KindValidation
	case errors.Is(err, ErrPredictor):
		return KindPredictor
	default:
		return KindInternal
	}
}
