package services

import (
	"context"
	"fmt"
	"sync"

	"stagecast/internal/core/ports"

	"go.uber.org/zap"
)

// WorkerPool holds a fixed set of media-engine workers and hands them out
// round-robin. Workers live for the whole process; a dying worker is
// reported through the death handler and is considered fatal.
type WorkerPool struct {
	mu      sync.Mutex
	workers []ports.Worker
	next    int

	logger *zap.SugaredLogger
}

// NewWorkerPool creates size workers up front. The death handler is invoked
// with the failing worker and its error; pass nil to only log.
func NewWorkerPool(ctx context.Context, engine ports.MediaEngine, size int, onDeath func(worker ports.Worker, err error), logger *zap.SugaredLogger) (*WorkerPool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("worker pool size must be > 0, got %d", size)
	}

	pool := &WorkerPool{
		workers: make([]ports.Worker, 0, size),
		logger:  logger,
	}

	for i := 0; i < size; i++ {
		worker, err := engine.CreateWorker(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create worker %d: %w", i, err)
		}

		w := worker
		w.OnDied(func(err error) {
			logger.Errorw("media worker died", "worker_id", w.ID(), "error", err)
			if onDeath != nil {
				onDeath(w, err)
			}
		})

		pool.workers = append(pool.workers, w)
	}

	logger.Infow("worker pool ready", "size", size)
	return pool, nil
}

// Next returns the next worker in round-robin order, wrapping the cursor.
func (p *WorkerPool) Next() ports.Worker {
	p.mu.Lock()
	defer p.mu.Unlock()

	worker := p.workers[p.next]
	p.next = (p.next + 1) % len(p.workers)
	return worker
}

// Size returns the fixed pool size.
func (p *WorkerPool) Size() int {
	return len(p.workers)
}

// Workers returns the pool members. The slice is a copy; the set itself
// never changes after construction.
func (p *WorkerPool) Workers() []ports.Worker {
	out := make([]ports.Worker, len(p.workers))
	copy(out, p.workers)
	return out
}
