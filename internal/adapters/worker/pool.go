// Package worker runs batches of independent jobs on a bounded set of
// goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/medcost/pkg/logger"
	"github.com/okian/medcost/pkg/metrics"
)

// Pool bounds how many jobs of one batch run at the same time. A Pool holds
// no goroutines between batches and is safe for concurrent use.
type Pool struct {
	size   int
	name   string
	logger logger.Logger
}

// Result is the outcome of the job at Index in the input slice.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// NewPool creates a pool running at most size jobs at once. A size below one
// selects runtime.NumCPU().
func NewPool(size int, opts ...Option) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	p := &Pool{
		size:   size,
		name:   "worker-pool",
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the concurrency bound.
func (p *Pool) Size() int { return p.size }

// Run applies fn to every element of in and returns the results in input
// order. Items not started before ctx is done carry ctx.Err().
func Run[In, Out any](ctx context.Context, p *Pool, in []In, fn func(context.Context, In) (Out, error)) []Result[Out] {
	results := make([]Result[Out], len(in))
	if len(in) == 0 {
		return results
	}
	metrics.RecordBatchSize(len(in))

	workers := p.size
	if workers > len(in) {
		workers = len(in)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = process(ctx, p.logger.Named(name), idx, in[idx], fn)
			}
		}(p.name + "-" + strconv.Itoa(i))
	}

feed:
	for i := range in {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(in); j++ {
				results[j] = Result[Out]{Index: j, Err: ctx.Err()}
			}
			p.logger.Warn(ctx, "batch canceled", logger.Int("pending", len(in)-i), logger.Error(ctx.Err()))
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

// process runs one job; a panic becomes ErrJobPanicked.
func process[In, Out any](ctx context.Context, l logger.Logger, idx int, item In, fn func(context.Context, In) (Out, error)) (res Result[Out]) {
	start := time.Now()
	res.Index = idx
	defer func() {
		if rec := recover(); rec != nil {
			res.Err = fmt.Errorf("%w: %v", ErrJobPanicked, rec)
			l.Error(ctx, "job panicked", logger.Int("index", idx), logger.Any("panic", rec))
		}
		metrics.RecordWorkerJobLatency(float64(time.Since(start).Milliseconds()))
	}()

	res.Value, res.Err = fn(ctx, item)
	if res.Err != nil {
		l.Debug(ctx, "job failed", logger.Int("index", idx), logger.Error(res.Err))
	}
	return res
}
