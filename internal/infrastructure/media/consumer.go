package media

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"stagecast/internal/core/domain"
)

type loopbackConsumer struct {
	id            domain.ConsumerID
	producerID    domain.ProducerID
	kind          domain.MediaKind
	rtpParameters domain.RtpParameters
	appData       domain.AppData
	transport     *LoopbackTransport

	mu              sync.Mutex
	closed          bool
	paused          bool
	producerPaused  bool
	priority        int
	preferredLayers *domain.ConsumerLayers
	currentLayers   *domain.ConsumerLayers
	score           domain.ConsumerScore

	onTransportClose func()
	onProducerClose  func()
	onProducerPause  func()
	onProducerResume func()
	onScore          func(score domain.ConsumerScore)
	onLayersChange   func(layers *domain.ConsumerLayers)
}

func (c *loopbackConsumer) ID() domain.ConsumerID {
	return c.id
}

func (c *loopbackConsumer) ProducerID() domain.ProducerID {
	return c.producerID
}

func (c *loopbackConsumer) Kind() domain.MediaKind {
	return c.kind
}

func (c *loopbackConsumer) Type() string {
	return "simple"
}

func (c *loopbackConsumer) RtpParameters() domain.RtpParameters {
	return c.rtpParameters
}

func (c *loopbackConsumer) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *loopbackConsumer) ProducerPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.producerPaused
}

func (c *loopbackConsumer) AppData() domain.AppData {
	return c.appData
}

func (c *loopbackConsumer) Score() domain.ConsumerScore {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.score
}

func (c *loopbackConsumer) Pause(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrConsumerNotFound
	}
	c.paused = true
	return nil
}

func (c *loopbackConsumer) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrConsumerNotFound
	}
	c.paused = false
	return nil
}

func (c *loopbackConsumer) SetPriority(ctx context.Context, priority int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrConsumerNotFound
	}
	c.priority = priority
	return nil
}

func (c *loopbackConsumer) SetPreferredLayers(ctx context.Context, layers domain.ConsumerLayers) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrConsumerNotFound
	}
	c.preferredLayers = &layers
	c.currentLayers = &layers
	fn := c.onLayersChange
	c.mu.Unlock()

	if fn != nil {
		fn(&layers)
	}
	return nil
}

func (c *loopbackConsumer) PreferredLayers() *domain.ConsumerLayers {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preferredLayers
}

func (c *loopbackConsumer) CurrentLayers() *domain.ConsumerLayers {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLayers
}

func (c *loopbackConsumer) RequestKeyFrame(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrConsumerNotFound
	}
	return nil
}

func (c *loopbackConsumer) GetStats(ctx context.Context) (json.RawMessage, error) {
	stats := fmt.Sprintf(`[{"type":"consumer","consumerId":%q,"producerId":%q}]`, c.id, c.producerID)
	return json.RawMessage(stats), nil
}

func (c *loopbackConsumer) OnTransportClose(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTransportClose = fn
}

func (c *loopbackConsumer) OnProducerClose(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onProducerClose = fn
}

func (c *loopbackConsumer) OnProducerPause(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onProducerPause = fn
}

func (c *loopbackConsumer) OnProducerResume(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onProducerResume = fn
}

func (c *loopbackConsumer) OnScore(fn func(score domain.ConsumerScore)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onScore = fn
}

func (c *loopbackConsumer) OnLayersChange(fn func(layers *domain.ConsumerLayers)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLayersChange = fn
}

// EmitScore fires the score handler. Test hook.
func (c *loopbackConsumer) EmitScore(score domain.ConsumerScore) {
	c.mu.Lock()
	c.score = score
	fn := c.onScore
	c.mu.Unlock()
	if fn != nil {
		fn(score)
	}
}

func (c *loopbackConsumer) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.transport.removeConsumer(c.id)
}

func (c *loopbackConsumer) transportClosed() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	fn := c.onTransportClose
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (c *loopbackConsumer) producerClosed() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	fn := c.onProducerClose
	c.mu.Unlock()

	c.transport.removeConsumer(c.id)
	if fn != nil {
		fn()
	}
}

func (c *loopbackConsumer) producerPausedChanged(paused bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.producerPaused = paused
	var fn func()
	if paused {
		fn = c.onProducerPause
	} else {
		fn = c.onProducerResume
	}
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}
