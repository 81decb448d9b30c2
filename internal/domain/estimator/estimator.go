// Package estimator computes an annual medical-insurance cost estimate for an
// applicant, either by delegating to an injected predictor or by running the
// deterministic fallback heuristic.
//
// The estimator holds no mutable state; one instance may serve any number of
// concurrent callers.
package estimator

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/medcost/internal/domain/insurance"
	"github.com/okian/medcost/pkg/logger"
)

// Provenance tells which path produced a result.
type Provenance string

const (
	ProvenanceModel     Provenance = "model-based"
	ProvenanceSimulated Provenance = "simulated"
)

// Features is the single-row schema handed to a predictor. Sex and smoker are
// encoded as booleans (male=true, smoker=true).
type Features struct {
	Age      float64 `json:"age"`
	Sex      bool    `json:"sex"`
	BMI      float64 `json:"bmi"`
	Children float64 `json:"children"`
	Smoker   bool    `json:"smoker"`
	Region   string  `json:"region"`
}

// FeaturesOf encodes a record for a predictor.
func FeaturesOf(rec insurance.InputRecord) Features {
	return Features{
		Age:      float64(rec.Age),
		Sex:      rec.Sex.Bool(),
		BMI:      rec.BMI,
		Children: float64(rec.Children),
		Smoker:   rec.Smoker,
		Region:   string(rec.Region),
	}
}

// Predictor scores one record. Implementations wrap a trained model.
type Predictor interface {
	Predict(ctx context.Context, f Features) (float64, error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(ctx context.Context, f Features) (float64, error)

// Predict calls fn.
func (fn PredictorFunc) Predict(ctx context.Context, f Features) (float64, error) {
	return fn(ctx, f)
}

// Result is an estimate tagged with its provenance. FallbackReason is set
// when a predictor failed and the caller asked for fallback on error.
type Result struct {
	Cost           float64    `json:"cost"`
	Provenance     Provenance `json:"provenance"`
	FallbackReason string     `json:"fallback_reason,omitempty"`
}

// Estimator implements the cost estimation contract.
type Estimator struct {
	predictor       Predictor
	fallbackOnError bool
	logger          logger.Logger
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithPredictor injects the model-backed predictor.
func WithPredictor(p Predictor) Option {
	return func(e *Estimator) {
		e.predictor = p
	}
}

// WithFallbackOnError makes predictor failures degrade to the heuristic
// instead of failing the call.
func WithFallbackOnError(enabled bool) Option {
	return func(e *Estimator) {
		e.fallbackOnError = enabled
	}
}

// WithLogger sets the logger used to report predictor failures.
func WithLogger(l logger.Logger) Option {
	return func(e *Estimator) {
		if l != nil {
			e.logger = l
		}
	}
}

// New builds an Estimator. Without a predictor every call is simulated.
func New(opts ...Option) *Estimator {
	e := &Estimator{logger: logger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HasPredictor reports whether a predictor was injected.
func (e *Estimator) HasPredictor() bool { return e.predictor != nil }

type callOptions struct {
	predictor       Predictor
	forceFallback   bool
	fallbackOnError *bool
}

// CallOption adjusts a single Estimate call.
type CallOption func(*callOptions)

// ForceFallback runs the heuristic even when a predictor is available.
func ForceFallback() CallOption {
	return func(o *callOptions) { o.forceFallback = true }
}

// FallbackOnError overrides the estimator's fallback-on-error setting.
func FallbackOnError(enabled bool) CallOption {
	return func(o *callOptions) { o.fallbackOnError = &enabled }
}

// UsePredictor replaces the estimator's predictor for one call. A nil
// predictor means "none available".
func UsePredictor(p Predictor) CallOption {
	return func(o *callOptions) { o.predictor = p }
}

// Estimate validates rec and returns an estimate. Validation failures are
// *insurance.ValidationError; predictor failures are *PredictorError unless
// fallback on error is enabled, in which case the simulated result carries
// the failure in FallbackReason.
func (e *Estimator) Estimate(ctx context.Context, rec insurance.InputRecord, opts ...CallOption) (Result, error) {
	if err := rec.Validate(); err != nil {
		return Result{}, err
	}

	o := callOptions{predictor: e.predictor}
	for _, opt := range opts {
		opt(&o)
	}

	if o.forceFallback || o.predictor == nil {
		return simulated(rec, ""), nil
	}

	cost, err := predict(ctx, o.predictor, FeaturesOf(rec))
	if err != nil {
		fallback := e.fallbackOnError
		if o.fallbackOnError != nil {
			fallback = *o.fallbackOnError
		}
		if !fallback {
			return Result{}, err
		}
		e.logger.Warn(ctx, "predictor failed; using simulated estimate", logger.Error(err))
		return simulated(rec, err.Error()), nil
	}
	return Result{Cost: cost, Provenance: ProvenanceModel}, nil
}

func simulated(rec insurance.InputRecord, reason string) Result {
	return Result{Cost: Simulate(rec), Provenance: ProvenanceSimulated, FallbackReason: reason}
}

// predict calls p and rejects anything that is not a usable cost.
func predict(ctx context.Context, p Predictor, f Features) (cost float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			cost, err = 0, &PredictorError{Reason: fmt.Sprintf("panic: %v", r)}
		}
	}()

	v, err := p.Predict(ctx, f)
	if err != nil {
		return 0, &PredictorError{Reason: "prediction failed", Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &PredictorError{Reason: fmt.Sprintf("non-numeric prediction %v", v)}
	}
	if v < 0 {
		return 0, &PredictorError{Reason: fmt.Sprintf("negative prediction %v", v)}
	}
	return v, nil
}
