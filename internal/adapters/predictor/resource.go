package predictor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/medcost/internal/domain/estimator"
	"github.com/okian/medcost/pkg/logger"
	"github.com/okian/medcost/pkg/metrics"
)

// LoadFunc produces a predictor and the kind it reports.
type LoadFunc func(ctx context.Context) (estimator.Predictor, string, error)

// Status describes the state of a Resource.
type Status struct {
	Available bool       `json:"available"`
	Source    string     `json:"source"`
	Kind      string     `json:"kind,omitempty"`
	Error     string     `json:"error,omitempty"`
	LoadedAt  *time.Time `json:"loaded_at,omitempty"`
}

// Resource loads a predictor once and hands the same instance to every
// caller. Both success and failure are cached until Reload.
type Resource struct {
	source string
	load   LoadFunc
	logger logger.Logger
	now    func() time.Time

	mu        sync.Mutex
	loaded    bool
	predictor estimator.Predictor
	err       error
	status    Status
}

// ResourceOption configures a Resource.
type ResourceOption func(*Resource)

// WithResourceLogger sets the logger.
func WithResourceLogger(l logger.Logger) ResourceOption {
	return func(r *Resource) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ResourceOption {
	return func(r *Resource) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResource wraps an arbitrary loader.
func NewResource(source string, load LoadFunc, opts ...ResourceOption) *Resource {
	r := &Resource{
		source: source,
		load:   load,
		logger: logger.Nop(),
		now:    time.Now,
		status: Status{Source: source},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewFileResource serves the model described by the YAML file at path.
func NewFileResource(path string, opts ...ResourceOption) *Resource {
	return NewResource(path, func(context.Context) (estimator.Predictor, string, error) {
		d, err := LoadDescriptor(path)
		if err != nil {
			return nil, "", err
		}
		p, err := Build(d)
		if err != nil {
			return nil, "", err
		}
		return p, d.Kind, nil
	}, opts...)
}

// NewRemoteResource serves a RemoteClient for endpoint.
func NewRemoteResource(endpoint string, timeout time.Duration, opts ...ResourceOption) *Resource {
	return NewResource(endpoint, func(context.Context) (estimator.Predictor, string, error) {
		c, err := NewRemoteClient(endpoint, WithTimeout(timeout))
		if err != nil {
			return nil, "", err
		}
		return c, KindRemote, nil
	}, opts...)
}

// Open picks the backend: a remote endpoint when one is given, otherwise the
// model file at modelPath.
func Open(modelPath, endpoint string, timeout time.Duration, opts ...ResourceOption) *Resource {
	if endpoint != "" {
		return NewRemoteResource(endpoint, timeout, opts...)
	}
	return NewFileResource(modelPath, opts...)
}

// Get returns the cached predictor, loading it on first use.
func (r *Resource) Get(ctx context.Context) (estimator.Predictor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		r.loadLocked(ctx)
	}
	return r.predictor, r.err
}

// Reload drops the cached outcome and loads again.
func (r *Resource) Reload(ctx context.Context) (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = false
	r.loadLocked(ctx)
	return r.status, r.err
}

// Status reports the last load outcome without triggering a load.
func (r *Resource) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Resource) loadLocked(ctx context.Context) {
	r.loaded = true
	r.status = Status{Source: r.source}

	if r.load == nil {
		r.predictor, r.err = nil, ErrModelUnavailable
	} else {
		var kind string
		r.predictor, kind, r.err = r.load(ctx)
		r.status.Kind = kind
		if r.err == nil && r.predictor == nil {
			r.err = ErrModelUnavailable
		}
	}

	if r.err != nil {
		r.predictor = nil
		r.status.Error = r.err.Error()
		metrics.RecordModelLoad("failure")
		metrics.SetPredictorAvailable(false)
		level := r.logger.Error
		if errors.Is(r.err, ErrModelUnavailable) {
			level = r.logger.Warn
		}
		level(ctx, "predictor unavailable", logger.String("model_source", r.source), logger.Error(r.err))
		return
	}

	loadedAt := r.now()
	r.predictor = instrumented{next: r.predictor}
	r.status.Available = true
	r.status.LoadedAt = &loadedAt
	metrics.RecordModelLoad("success")
	metrics.SetPredictorAvailable(true)
	r.logger.Info(ctx, "predictor loaded", logger.String("model_source", r.source), logger.String("kind", r.status.Kind))
}

// instrumented records the latency of every call.
type instrumented struct {
	next estimator.Predictor
}

func (p instrumented) Predict(ctx context.Context, f estimator.Features) (float64, error) {
	start := time.Now()
	v, err := p.next.Predict(ctx, f)
	metrics.RecordPredictorLatency(float64(time.Since(start).Microseconds()) / 1000)
	return v, err
}
