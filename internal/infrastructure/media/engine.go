// Package media provides an in-process implementation of the media engine
// ports. It performs no packet processing: entities exist only as state
// machines with the same lifecycle and event surface a real SFU backend
// exposes, which is enough to run the orchestrator and to test it without
// external processes.
package media

import (
	"context"
	"sync"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/pkg/utils"

	"go.uber.org/zap"
)

// Engine creates loopback workers.
type Engine struct {
	mu      sync.Mutex
	workers []*LoopbackWorker
	logger  *zap.SugaredLogger
}

func NewEngine(logger *zap.SugaredLogger) *Engine {
	return &Engine{logger: logger}
}

func (e *Engine) CreateWorker(ctx context.Context) (ports.Worker, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	w := &LoopbackWorker{
		id:     domain.WorkerID(utils.GenerateWorkerID(len(e.workers))),
		logger: e.logger,
	}
	e.workers = append(e.workers, w)
	e.logger.Infow("loopback worker created", "worker_id", w.id)
	return w, nil
}

// Workers exposes created workers for tests.
func (e *Engine) Workers() []*LoopbackWorker {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*LoopbackWorker, len(e.workers))
	copy(out, e.workers)
	return out
}

// LoopbackWorker is one simulated media-processing unit.
type LoopbackWorker struct {
	id domain.WorkerID

	mu       sync.Mutex
	died     bool
	onDied   func(err error)
	throttle *domain.ThrottleParams
	routers  int

	logger *zap.SugaredLogger
}

func (w *LoopbackWorker) ID() domain.WorkerID {
	return w.id
}

// RoomCount reports live routers hosted by this worker.
func (w *LoopbackWorker) RoomCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.routers
}

func (w *LoopbackWorker) CreateRouter(ctx context.Context, codecs []domain.RtpCodecCapability) (ports.Router, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.died {
		return nil, domain.ErrWorkerDied
	}
	router := newLoopbackRouter(codecs, w.logger)
	router.onClose = w.routerClosed
	w.routers++
	return router, nil
}

func (w *LoopbackWorker) routerClosed() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.routers > 0 {
		w.routers--
	}
}

func (w *LoopbackWorker) ApplyNetworkThrottle(ctx context.Context, params domain.ThrottleParams) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.died {
		return domain.ErrWorkerDied
	}
	w.throttle = &params
	return nil
}

func (w *LoopbackWorker) ResetNetworkThrottle(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.died {
		return domain.ErrWorkerDied
	}
	w.throttle = nil
	return nil
}

// Throttle returns the currently applied shaping parameters, nil if none.
func (w *LoopbackWorker) Throttle() *domain.ThrottleParams {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.throttle
}

func (w *LoopbackWorker) OnDied(fn func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onDied = fn
}

// SimulateDeath marks the worker dead and fires the death handler. Test
// hook: a real backend raises this when its worker subprocess exits.
func (w *LoopbackWorker) SimulateDeath(err error) {
	w.mu.Lock()
	if w.died {
		w.mu.Unlock()
		return
	}
	w.died = true
	fn := w.onDied
	w.mu.Unlock()

	if fn != nil {
		fn(err)
	}
}
