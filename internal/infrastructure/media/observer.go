package media

import (
	"context"
	"sync"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
)

// LoopbackObserver tracks the producer set a real audio-level observer
// would poll. Volume events are raised through the Emit test hooks.
type LoopbackObserver struct {
	threshold  int
	intervalMs int
	maxEntries int

	mu        sync.Mutex
	closed    bool
	producers map[domain.ProducerID]struct{}
	onVolumes func(volumes []domain.AudioVolume)
	onSilence func()
}

func newLoopbackObserver(opts ports.AudioLevelObserverOptions) *LoopbackObserver {
	return &LoopbackObserver{
		threshold:  opts.Threshold,
		intervalMs: opts.IntervalMs,
		maxEntries: opts.MaxEntries,
		producers:  make(map[domain.ProducerID]struct{}),
	}
}

func (o *LoopbackObserver) AddProducer(ctx context.Context, producerID domain.ProducerID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return domain.ErrRoomClosed
	}
	o.producers[producerID] = struct{}{}
	return nil
}

func (o *LoopbackObserver) RemoveProducer(ctx context.Context, producerID domain.ProducerID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.producers[producerID]; !ok {
		return domain.ErrProducerNotFound
	}
	delete(o.producers, producerID)
	return nil
}

// Observed reports whether the producer is registered. Test helper.
func (o *LoopbackObserver) Observed(producerID domain.ProducerID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.producers[producerID]
	return ok
}

func (o *LoopbackObserver) OnVolumes(fn func(volumes []domain.AudioVolume)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onVolumes = fn
}

func (o *LoopbackObserver) OnSilence(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onSilence = fn
}

// EmitVolumes fires the volumes handler. Test hook.
func (o *LoopbackObserver) EmitVolumes(volumes []domain.AudioVolume) {
	o.mu.Lock()
	fn := o.onVolumes
	o.mu.Unlock()
	if fn != nil {
		fn(volumes)
	}
}

// EmitSilence fires the silence handler. Test hook.
func (o *LoopbackObserver) EmitSilence() {
	o.mu.Lock()
	fn := o.onSilence
	o.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (o *LoopbackObserver) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.producers = make(map[domain.ProducerID]struct{})
}
