package media

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"stagecast/internal/core/domain"
)

type loopbackDataProducer struct {
	id         domain.DataProducerID
	label      string
	protocol   string
	sctpParams domain.SctpStreamParameters
	appData    domain.AppData
	transport  *LoopbackTransport

	mu        sync.Mutex
	closed    bool
	consumers []*loopbackDataConsumer
}

func (dp *loopbackDataProducer) ID() domain.DataProducerID {
	return dp.id
}

func (dp *loopbackDataProducer) Label() string {
	return dp.label
}

func (dp *loopbackDataProducer) Protocol() string {
	return dp.protocol
}

func (dp *loopbackDataProducer) SctpStreamParameters() domain.SctpStreamParameters {
	return dp.sctpParams
}

func (dp *loopbackDataProducer) AppData() domain.AppData {
	return dp.appData
}

func (dp *loopbackDataProducer) GetStats(ctx context.Context) (json.RawMessage, error) {
	stats := fmt.Sprintf(`[{"type":"data-producer","dataProducerId":%q,"label":%q}]`, dp.id, dp.label)
	return json.RawMessage(stats), nil
}

func (dp *loopbackDataProducer) Close() {
	dp.mu.Lock()
	if dp.closed {
		dp.mu.Unlock()
		return
	}
	dp.closed = true
	consumers := make([]*loopbackDataConsumer, len(dp.consumers))
	copy(consumers, dp.consumers)
	dp.mu.Unlock()

	for _, dc := range consumers {
		dc.dataProducerClosed()
	}

	dp.transport.removeDataProducer(dp.id)
	dp.transport.router.unregisterDataProducer(dp.id)
}

func (dp *loopbackDataProducer) attachConsumer(dc *loopbackDataConsumer) {
	dp.mu.Lock()
	dp.consumers = append(dp.consumers, dc)
	dp.mu.Unlock()
}

type loopbackDataConsumer struct {
	id             domain.DataConsumerID
	dataProducerID domain.DataProducerID
	label          string
	protocol       string
	sctpParams     domain.SctpStreamParameters
	appData        domain.AppData
	transport      *LoopbackTransport

	mu                  sync.Mutex
	closed              bool
	onTransportClose    func()
	onDataProducerClose func()
}

func (dc *loopbackDataConsumer) ID() domain.DataConsumerID {
	return dc.id
}

func (dc *loopbackDataConsumer) DataProducerID() domain.DataProducerID {
	return dc.dataProducerID
}

func (dc *loopbackDataConsumer) Label() string {
	return dc.label
}

func (dc *loopbackDataConsumer) Protocol() string {
	return dc.protocol
}

func (dc *loopbackDataConsumer) SctpStreamParameters() domain.SctpStreamParameters {
	return dc.sctpParams
}

func (dc *loopbackDataConsumer) AppData() domain.AppData {
	return dc.appData
}

func (dc *loopbackDataConsumer) GetStats(ctx context.Context) (json.RawMessage, error) {
	stats := fmt.Sprintf(`[{"type":"data-consumer","dataConsumerId":%q,"label":%q}]`, dc.id, dc.label)
	return json.RawMessage(stats), nil
}

func (dc *loopbackDataConsumer) OnTransportClose(fn func()) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.onTransportClose = fn
}

func (dc *loopbackDataConsumer) OnDataProducerClose(fn func()) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.onDataProducerClose = fn
}

func (dc *loopbackDataConsumer) Close() {
	dc.mu.Lock()
	if dc.closed {
		dc.mu.Unlock()
		return
	}
	dc.closed = true
	dc.mu.Unlock()

	dc.transport.removeDataConsumer(dc.id)
}

func (dc *loopbackDataConsumer) transportClosed() {
	dc.mu.Lock()
	if dc.closed {
		dc.mu.Unlock()
		return
	}
	dc.closed = true
	fn := dc.onTransportClose
	dc.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (dc *loopbackDataConsumer) dataProducerClosed() {
	dc.mu.Lock()
	if dc.closed {
		dc.mu.Unlock()
		return
	}
	dc.closed = true
	fn := dc.onDataProducerClose
	dc.mu.Unlock()

	dc.transport.removeDataConsumer(dc.id)
	if fn != nil {
		fn()
	}
}
