package media

import (
	"context"
	"sync"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/pkg/utils"

	"go.uber.org/zap"
)

// LoopbackRouter keeps the producer table a real router would keep, so
// CanConsume and close cascades behave like the real thing.
type LoopbackRouter struct {
	id           string
	capabilities domain.RtpCapabilities

	mu            sync.Mutex
	closed        bool
	producers     map[domain.ProducerID]*loopbackProducer
	dataProducers map[domain.DataProducerID]*loopbackDataProducer
	transports    map[domain.TransportID]*LoopbackTransport

	// onClose reports back to the owning worker for room accounting.
	onClose func()

	logger *zap.SugaredLogger
}

func newLoopbackRouter(codecs []domain.RtpCodecCapability, logger *zap.SugaredLogger) *LoopbackRouter {
	return &LoopbackRouter{
		id:            utils.GenerateRouterID(),
		capabilities:  domain.RtpCapabilities{Codecs: codecs},
		producers:     make(map[domain.ProducerID]*loopbackProducer),
		dataProducers: make(map[domain.DataProducerID]*loopbackDataProducer),
		transports:    make(map[domain.TransportID]*LoopbackTransport),
		logger:        logger,
	}
}

func (r *LoopbackRouter) ID() string {
	return r.id
}

func (r *LoopbackRouter) RtpCapabilities() domain.RtpCapabilities {
	return r.capabilities
}

func (r *LoopbackRouter) CreateWebRtcTransport(ctx context.Context, opts ports.WebRtcTransportOptions) (ports.WebRtcTransport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, domain.ErrRoomClosed
	}

	t := newLoopbackTransport(r, opts)
	r.transports[t.id] = t
	return t, nil
}

func (r *LoopbackRouter) CreateAudioLevelObserver(ctx context.Context, opts ports.AudioLevelObserverOptions) (ports.AudioLevelObserver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, domain.ErrRoomClosed
	}
	return newLoopbackObserver(opts), nil
}

// CanConsume requires the producer to exist and the capabilities to carry at
// least one codec of the producer's kind.
func (r *LoopbackRouter) CanConsume(producerID domain.ProducerID, caps domain.RtpCapabilities) bool {
	r.mu.Lock()
	producer, ok := r.producers[producerID]
	r.mu.Unlock()
	if !ok {
		return false
	}

	for _, codec := range caps.Codecs {
		if codec.Kind == producer.kind {
			return true
		}
	}
	return false
}

func (r *LoopbackRouter) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	transports := make([]*LoopbackTransport, 0, len(r.transports))
	for _, t := range r.transports {
		transports = append(transports, t)
	}
	r.mu.Unlock()

	for _, t := range transports {
		t.Close()
	}

	if r.onClose != nil {
		r.onClose()
	}
}

func (r *LoopbackRouter) registerProducer(p *loopbackProducer) {
	r.mu.Lock()
	r.producers[p.id] = p
	r.mu.Unlock()
}

func (r *LoopbackRouter) unregisterProducer(id domain.ProducerID) {
	r.mu.Lock()
	delete(r.producers, id)
	r.mu.Unlock()
}

func (r *LoopbackRouter) unregisterTransport(id domain.TransportID) {
	r.mu.Lock()
	delete(r.transports, id)
	r.mu.Unlock()
}

func (r *LoopbackRouter) producerByID(id domain.ProducerID) (*loopbackProducer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.producers[id]
	return p, ok
}

func (r *LoopbackRouter) registerDataProducer(dp *loopbackDataProducer) {
	r.mu.Lock()
	r.dataProducers[dp.id] = dp
	r.mu.Unlock()
}

func (r *LoopbackRouter) unregisterDataProducer(id domain.DataProducerID) {
	r.mu.Lock()
	delete(r.dataProducers, id)
	r.mu.Unlock()
}

func (r *LoopbackRouter) dataProducerByID(id domain.DataProducerID) (*loopbackDataProducer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dp, ok := r.dataProducers[id]
	return dp, ok
}
