package media

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"stagecast/internal/core/domain"
)

type loopbackProducer struct {
	id            domain.ProducerID
	kind          domain.MediaKind
	rtpParameters domain.RtpParameters
	appData       domain.AppData
	transport     *LoopbackTransport

	mu        sync.Mutex
	paused    bool
	closed    bool
	onScore   func(score []domain.ProducerScore)
	consumers []*loopbackConsumer
}

func (p *loopbackProducer) ID() domain.ProducerID {
	return p.id
}

func (p *loopbackProducer) Kind() domain.MediaKind {
	return p.kind
}

func (p *loopbackProducer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *loopbackProducer) AppData() domain.AppData {
	return p.appData
}

func (p *loopbackProducer) Pause(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return domain.ErrProducerNotFound
	}
	p.paused = true
	consumers := p.consumerSnapshotLocked()
	p.mu.Unlock()

	for _, c := range consumers {
		c.producerPausedChanged(true)
	}
	return nil
}

func (p *loopbackProducer) Resume(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return domain.ErrProducerNotFound
	}
	p.paused = false
	consumers := p.consumerSnapshotLocked()
	p.mu.Unlock()

	for _, c := range consumers {
		c.producerPausedChanged(false)
	}
	return nil
}

func (p *loopbackProducer) GetStats(ctx context.Context) (json.RawMessage, error) {
	stats := fmt.Sprintf(`[{"type":"producer","producerId":%q,"kind":%q}]`, p.id, p.kind)
	return json.RawMessage(stats), nil
}

func (p *loopbackProducer) OnScore(fn func(score []domain.ProducerScore)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onScore = fn
}

// EmitScore fires the score handler. Test hook.
func (p *loopbackProducer) EmitScore(score []domain.ProducerScore) {
	p.mu.Lock()
	fn := p.onScore
	p.mu.Unlock()
	if fn != nil {
		fn(score)
	}
}

func (p *loopbackProducer) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	consumers := p.consumerSnapshotLocked()
	p.mu.Unlock()

	for _, c := range consumers {
		c.producerClosed()
	}

	p.transport.removeProducer(p.id)
	p.transport.router.unregisterProducer(p.id)
}

func (p *loopbackProducer) attachConsumer(c *loopbackConsumer) {
	p.mu.Lock()
	p.consumers = append(p.consumers, c)
	p.mu.Unlock()
}

func (p *loopbackProducer) consumerSnapshotLocked() []*loopbackConsumer {
	out := make([]*loopbackConsumer, len(p.consumers))
	copy(out, p.consumers)
	return out
}
