package media

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/pkg/utils"
)

// LoopbackTransport mimics a WebRTC transport: it hands out plausible ICE
// and DTLS parameter blobs and cascades Close into its producers and
// consumers the way a real transport does.
type LoopbackTransport struct {
	id      domain.TransportID
	router  *LoopbackRouter
	appData domain.AppData

	mu            sync.Mutex
	closed        bool
	connected     bool
	iceParameters json.RawMessage
	sctpEnabled   bool
	onTrace       func(trace domain.BweTrace)

	producers     map[domain.ProducerID]*loopbackProducer
	consumers     map[domain.ConsumerID]*loopbackConsumer
	dataProducers map[domain.DataProducerID]*loopbackDataProducer
	dataConsumers map[domain.DataConsumerID]*loopbackDataConsumer
}

func newLoopbackTransport(router *LoopbackRouter, opts ports.WebRtcTransportOptions) *LoopbackTransport {
	return &LoopbackTransport{
		id:            domain.TransportID(utils.GenerateTransportID()),
		router:        router,
		appData:       opts.AppData,
		iceParameters: iceParametersBlob(),
		sctpEnabled:   opts.EnableSctp,
		producers:     make(map[domain.ProducerID]*loopbackProducer),
		consumers:     make(map[domain.ConsumerID]*loopbackConsumer),
		dataProducers: make(map[domain.DataProducerID]*loopbackDataProducer),
		dataConsumers: make(map[domain.DataConsumerID]*loopbackDataConsumer),
	}
}

func iceParametersBlob() json.RawMessage {
	blob := fmt.Sprintf(`{"usernameFragment":%q,"password":%q,"iceLite":true}`,
		utils.GenerateICEFragment(), utils.GenerateICEFragment())
	return json.RawMessage(blob)
}

func (t *LoopbackTransport) ID() domain.TransportID {
	return t.id
}

func (t *LoopbackTransport) Info() ports.TransportInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	info := ports.TransportInfo{
		ID:             t.id,
		IceParameters:  t.iceParameters,
		IceCandidates:  json.RawMessage(`[{"foundation":"loopback","ip":"127.0.0.1","port":0,"protocol":"udp","type":"host"}]`),
		DtlsParameters: json.RawMessage(`{"role":"auto","fingerprints":[]}`),
	}
	if t.sctpEnabled {
		info.SctpParameters = json.RawMessage(`{"port":5000,"OS":1024,"MIS":1024}`)
	}
	return info
}

func (t *LoopbackTransport) AppData() domain.AppData {
	return t.appData
}

func (t *LoopbackTransport) Connect(ctx context.Context, dtlsParameters json.RawMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return domain.ErrTransportNotFound
	}
	t.connected = true
	return nil
}

func (t *LoopbackTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func (t *LoopbackTransport) RestartIce(ctx context.Context) (json.RawMessage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, domain.ErrTransportNotFound
	}
	t.iceParameters = iceParametersBlob()
	return t.iceParameters, nil
}

func (t *LoopbackTransport) Produce(ctx context.Context, opts ports.ProduceOptions) (ports.Producer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, domain.ErrTransportNotFound
	}

	p := &loopbackProducer{
		id:            domain.ProducerID(utils.GenerateProducerID()),
		kind:          opts.Kind,
		rtpParameters: opts.RtpParameters,
		paused:        opts.Paused,
		appData:       opts.AppData,
		transport:     t,
	}
	t.producers[p.id] = p
	t.router.registerProducer(p)
	return p, nil
}

func (t *LoopbackTransport) Consume(ctx context.Context, opts ports.ConsumeOptions) (ports.Consumer, error) {
	producer, ok := t.router.producerByID(opts.ProducerID)
	if !ok {
		return nil, domain.ErrProducerNotFound
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, domain.ErrTransportNotFound
	}

	c := &loopbackConsumer{
		id:         domain.ConsumerID(utils.GenerateConsumerID()),
		producerID: producer.id,
		kind:       producer.kind,
		// Loopback consumers mirror the producer's parameters verbatim.
		rtpParameters:  producer.rtpParameters,
		paused:         opts.Paused,
		producerPaused: producer.Paused(),
		appData:        opts.AppData,
		score:          domain.ConsumerScore{Score: 10, ProducerScore: 10},
		transport:      t,
	}
	t.consumers[c.id] = c
	producer.attachConsumer(c)
	return c, nil
}

func (t *LoopbackTransport) ProduceData(ctx context.Context, opts ports.ProduceDataOptions) (ports.DataProducer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, domain.ErrTransportNotFound
	}
	if !t.sctpEnabled {
		return nil, domain.ErrTransportNotFound
	}

	dp := &loopbackDataProducer{
		id:         domain.DataProducerID(utils.GenerateDataProducerID()),
		label:      opts.Label,
		protocol:   opts.Protocol,
		sctpParams: opts.SctpStreamParameters,
		appData:    opts.AppData,
		transport:  t,
	}
	t.dataProducers[dp.id] = dp
	t.router.registerDataProducer(dp)
	return dp, nil
}

func (t *LoopbackTransport) ConsumeData(ctx context.Context, opts ports.ConsumeDataOptions) (ports.DataConsumer, error) {
	dataProducer, ok := t.router.dataProducerByID(opts.DataProducerID)
	if !ok {
		return nil, domain.ErrDataProducerNotFound
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, domain.ErrTransportNotFound
	}

	dc := &loopbackDataConsumer{
		id:             domain.DataConsumerID(utils.GenerateDataConsumerID()),
		dataProducerID: dataProducer.id,
		label:          dataProducer.label,
		protocol:       dataProducer.protocol,
		sctpParams:     dataProducer.sctpParams,
		appData:        opts.AppData,
		transport:      t,
	}
	t.dataConsumers[dc.id] = dc
	dataProducer.attachConsumer(dc)
	return dc, nil
}

func (t *LoopbackTransport) GetStats(ctx context.Context) (json.RawMessage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := fmt.Sprintf(`[{"type":"transport","transportId":%q,"producers":%d,"consumers":%d}]`,
		t.id, len(t.producers), len(t.consumers))
	return json.RawMessage(stats), nil
}

func (t *LoopbackTransport) OnTrace(fn func(trace domain.BweTrace)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTrace = fn
}

// EmitTrace fires the bandwidth-estimation trace handler. Test hook.
func (t *LoopbackTransport) EmitTrace(trace domain.BweTrace) {
	t.mu.Lock()
	fn := t.onTrace
	t.mu.Unlock()
	if fn != nil {
		fn(trace)
	}
}

func (t *LoopbackTransport) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true

	producers := make([]*loopbackProducer, 0, len(t.producers))
	for _, p := range t.producers {
		producers = append(producers, p)
	}
	consumers := make([]*loopbackConsumer, 0, len(t.consumers))
	for _, c := range t.consumers {
		consumers = append(consumers, c)
	}
	dataProducers := make([]*loopbackDataProducer, 0, len(t.dataProducers))
	for _, dp := range t.dataProducers {
		dataProducers = append(dataProducers, dp)
	}
	dataConsumers := make([]*loopbackDataConsumer, 0, len(t.dataConsumers))
	for _, dc := range t.dataConsumers {
		dataConsumers = append(dataConsumers, dc)
	}
	t.mu.Unlock()

	for _, p := range producers {
		p.Close()
	}
	for _, c := range consumers {
		c.transportClosed()
	}
	for _, dp := range dataProducers {
		dp.Close()
	}
	for _, dc := range dataConsumers {
		dc.transportClosed()
	}

	t.router.unregisterTransport(t.id)
}

func (t *LoopbackTransport) removeProducer(id domain.ProducerID) {
	t.mu.Lock()
	delete(t.producers, id)
	t.mu.Unlock()
}

func (t *LoopbackTransport) removeConsumer(id domain.ConsumerID) {
	t.mu.Lock()
	delete(t.consumers, id)
	t.mu.Unlock()
}

func (t *LoopbackTransport) removeDataProducer(id domain.DataProducerID) {
	t.mu.Lock()
	delete(t.dataProducers, id)
	t.mu.Unlock()
}

func (t *LoopbackTransport) removeDataConsumer(id domain.DataConsumerID) {
	t.mu.Lock()
	delete(t.dataConsumers, id)
	t.mu.Unlock()
}
