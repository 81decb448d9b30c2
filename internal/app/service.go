// Package service provides the core business service that implements
// the dependencies required by the HTTP API, the form site and the CLI.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/medcost/internal/adapters/predictor"
	"github.com/okian/medcost/internal/adapters/worker"
	"github.com/okian/medcost/internal/domain/estimator"
	"github.com/okian/medcost/internal/domain/insurance"
	"github.com/okian/medcost/pkg/logger"
	"github.com/okian/medcost/pkg/metrics"
)

// PredictorResource hands out the model predictor.
type PredictorResource interface {
	Get(ctx context.Context) (estimator.Predictor, error)
	Reload(ctx context.Context) (predictor.Status, error)
	Status() predictor.Status
}

// EstimateOptions adjusts a single estimation.
type EstimateOptions struct {
	// ForceFallback skips the predictor and runs the heuristic.
	ForceFallback bool
	// FallbackOnError overrides the service default when set.
	FallbackOnError *bool
}

// Estimation is one answered request.
type Estimation struct {
	ID          string                `json:"id"`
	Record      insurance.InputRecord `json:"record"`
	BMICategory insurance.BMICategory `json:"bmi_category"`
	Result      estimator.Result      `json:"result"`
	CreatedAt   time.Time             `json:"created_at"`
}

// Service implements the API dependencies for the estimation system.
type Service struct {
	mu sync.RWMutex

	// Core components
	validator *insurance.Validator
	estimator *estimator.Estimator
	resource  PredictorResource
	pool      *worker.Pool

	// Configuration
	fallbackOnError bool
	maxBatch        int

	// State
	started bool
	now     func() time.Time
	newID   func() string

	// Counters
	estimates          atomic.Int64
	modelBased         atomic.Int64
	simulated          atomic.Int64
	fallbacks          atomic.Int64
	validationFailures atomic.Int64
	predictorFailures  atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithValidator replaces the submission validator.
func WithValidator(v *insurance.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithResource sets where the model predictor comes from. Without one every
// estimate is simulated.
func WithResource(r PredictorResource) Option {
	return func(s *Service) {
		s.resource = r
	}
}

// WithFallbackOnError makes predictor failures degrade to the heuristic.
func WithFallbackOnError(enabled bool) Option {
	return func(s *Service) {
		s.fallbackOnError = enabled
	}
}

// WithBatchPool sets the pool that runs batch estimations.
func WithBatchPool(p *worker.Pool) Option {
	return func(s *Service) {
		if p != nil {
			s.pool = p
		}
	}
}

// WithMaxBatch caps the number of records in one batch.
func WithMaxBatch(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// WithClock overrides time.Now for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		validator: insurance.NewValidator(),
		now:       time.Now,
		newID:     uuid.NewString,
		maxBatch:  DefaultMaxBatch,
		logger:    nil, // replaced in Start or below
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}

	if s.pool == nil {
		s.pool = worker.NewPool(0, worker.WithLogger(s.logger.Named("batch")))
	}

	s.estimator = estimator.New(
		estimator.WithFallbackOnError(s.fallbackOnError),
		estimator.WithLogger(s.logger.Named("estimator")),
	)
	return s
}

// Start warms the predictor resource. A predictor that cannot be loaded is
// logged and the service keeps answering with simulated estimates.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting estimation service...")

	available := false
	if s.resource != nil {
		if _, err := s.resource.Get(ctx); err != nil {
			s.logger.Warn(ctx, "predictor not available; estimates will be simulated", logger.Error(err))
		} else {
			available = true
		}
	}
	metrics.SetPredictorAvailable(available)

	minAge, maxAge := s.validator.AgeRange()
	s.started = true
	s.logger.Info(ctx, "estimation service started",
		logger.Bool("predictor", available),
		logger.Bool("fallbackOnError", s.fallbackOnError),
		logger.Int("minAge", minAge),
		logger.Int("maxAge", maxAge),
	)
	return nil
}

// Stop marks the service as stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "estimation service stopped")
}

// Validator returns the submission validator, used to render form bounds.
func (s *Service) Validator() *insurance.Validator { return s.validator }

// Estimate validates sub and produces an estimate.
func (s *Service) Estimate(ctx context.Context, sub insurance.Submission, opts EstimateOptions) (Estimation, error) {
	rec, err := s.validator.Record(sub)
	if err != nil {
		s.validationFailures.Add(1)
		metrics.RecordEstimationFailure(estimator.KindValidation)
		s.logger.Debug(ctx, "rejected submission", logger.Error(err))
		return Estimation{}, err
	}
	return s.EstimateRecord(ctx, rec, opts)
}

// EstimateRecord estimates an already collected record.
func (s *Service) EstimateRecord(ctx context.Context, rec insurance.InputRecord, opts EstimateOptions) (Estimation, error) {
	var callOpts []estimator.CallOption
	if opts.FallbackOnError != nil {
		callOpts = append(callOpts, estimator.FallbackOnError(*opts.FallbackOnError))
	}

	var unavailable error
	switch {
	case opts.ForceFallback:
		callOpts = append(callOpts, estimator.ForceFallback())
	case s.resource == nil:
		callOpts = append(callOpts, estimator.UsePredictor(nil))
	default:
		p, err := s.resource.Get(ctx)
		if err != nil {
			unavailable = err
		}
		callOpts = append(callOpts, estimator.UsePredictor(p))
	}

	res, err := s.estimator.Estimate(ctx, rec, callOpts...)
	if err != nil {
		kind := estimator.Kind(err)
		switch kind {
		case estimator.KindValidation:
			s.validationFailures.Add(1)
		case estimator.KindPredictor:
			s.predictorFailures.Add(1)
		}
		metrics.RecordEstimationFailure(kind)
		s.logger.Warn(ctx, "estimation failed", logger.String("kind", kind), logger.Error(err))
		return Estimation{}, err
	}

	if res.FallbackReason != "" {
		s.fallbacks.Add(1)
		s.predictorFailures.Add(1)
		metrics.RecordFallback()
	} else if unavailable != nil {
		res.FallbackReason = unavailable.Error()
	}

	s.estimates.Add(1)
	if res.Provenance == estimator.ProvenanceModel {
		s.modelBased.Add(1)
	} else {
		s.simulated.Add(1)
	}
	metrics.RecordEstimate(string(res.Provenance), res.Cost)

	e := Estimation{
		ID:          s.newID(),
		Record:      rec,
		BMICategory: insurance.CategorizeBMI(rec.BMI),
		Result:      res,
		CreatedAt:   s.now().UTC(),
	}
	s.logger.Debug(ctx, "estimate produced",
		logger.String("id", e.ID),
		logger.String("provenance", string(res.Provenance)),
		logger.Float64("cost", res.Cost),
	)
	return e, nil
}

// BatchItem is the outcome for one record of a batch.
type BatchItem struct {
	Index      int
	Estimation Estimation
	Err        error
}

// EstimateBatch estimates every submission on the batch pool. Per-record
// failures are reported in their item; the call itself fails only when the
// batch is empty or larger than the configured maximum.
func (s *Service) EstimateBatch(ctx context.Context, subs []insurance.Submission, opts EstimateOptions) ([]BatchItem, error) {
	switch {
	case len(subs) == 0:
		return nil, ErrEmptyBatch
	case len(subs) > s.maxBatch:
		return nil, fmt.Errorf("%w: %d records, at most %d", ErrBatchTooLarge, len(subs), s.maxBatch)
	}

	results := worker.Run(ctx, s.pool, subs, func(ctx context.Context, sub insurance.Submission) (Estimation, error) {
		return s.Estimate(ctx, sub, opts)
	})

	items := make([]BatchItem, len(results))
	failed := 0
	for i, r := range results {
		items[i] = BatchItem{Index: r.Index, Estimation: r.Value, Err: r.Err}
		if r.Err != nil {
			failed++
		}
	}
	s.logger.Debug(ctx, "batch estimated", logger.Int("records", len(subs)), logger.Int("failed", failed))
	return items, nil
}

// ModelStatus reports the predictor resource state.
func (s *Service) ModelStatus() predictor.Status {
	if s.resource == nil {
		return predictor.Status{Error: predictor.ErrModelUnavailable.Error()}
	}
	return s.resource.Status()
}

// ReloadModel drops the cached predictor and loads it again.
func (s *Service) ReloadModel(ctx context.Context) (predictor.Status, error) {
	if s.resource == nil {
		return s.ModelStatus(), predictor.ErrModelUnavailable
	}
	st, err := s.resource.Reload(ctx)
	if err != nil {
		s.logger.Warn(ctx, "model reload failed", logger.Error(err))
	} else {
		s.logger.Info(ctx, "model reloaded", logger.String("kind", st.Kind))
	}
	return st, err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	minAge, maxAge := s.validator.AgeRange()
	return map[string]interface{}{
		"started":            started,
		"estimates":          s.estimates.Load(),
		"modelBased":         s.modelBased.Load(),
		"simulated":          s.simulated.Load(),
		"fallbacks":          s.fallbacks.Load(),
		"validationFailures": s.validationFailures.Load(),
		"predictorFailures":  s.predictorFailures.Load(),
		"fallbackOnError":    s.fallbackOnError,
		"ageRange":           []int{minAge, maxAge},
		"maxChildren":        s.validator.MaxChildren(),
		"maxBatch":           s.maxBatch,
		"batchWorkers":       s.pool.Size(),
		"predictor":          s.ModelStatus(),
	}
}
