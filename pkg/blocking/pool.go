// Package blocking runs CPU and disk bound work on a bounded set of workers so
// request goroutines only wait for a free slot instead of piling onto the
// decoder and encoder at once.
package blocking

import (
	"context"
	"runtime"
	"time"

	"github.com/jaennil/guide_helper/backend/rastertiles/pkg/metrics"
	"golang.org/x/sync/semaphore"
)

type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// NewPool returns a pool with size workers, or runtime.NumCPU() when size <= 0.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: size,
	}
}

func (p *Pool) Size() int {
	return p.size
}

// Run executes fn once a worker is free. It returns ctx.Err() if the context
// is done before a worker becomes available; fn is never started in that case.
func Run[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T

	start := time.Now()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	defer p.sem.Release(1)
	metrics.WorkerQueueWait.Observe(time.Since(start).Seconds())

	return fn()
}
