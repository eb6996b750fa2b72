package services

import (
	"sync"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
)

// Peer is one connected participant: its signaling connection plus every
// transport, producer and consumer it owns. Entities are exclusively owned;
// closing the peer walks and closes everything beneath it.
type Peer struct {
	id     domain.PeerID
	signal ports.SignalTransport

	mu               sync.Mutex
	joined           bool
	closed           bool
	displayName      string
	device           domain.DeviceInfo
	rtpCapabilities  *domain.RtpCapabilities
	sctpCapabilities *domain.SctpCapabilities

	transports    map[domain.TransportID]ports.WebRtcTransport
	producers     map[domain.ProducerID]ports.Producer
	consumers     map[domain.ConsumerID]ports.Consumer
	dataProducers map[domain.DataProducerID]ports.DataProducer
	dataConsumers map[domain.DataConsumerID]ports.DataConsumer
}

func newPeer(id domain.PeerID, signal ports.SignalTransport) *Peer {
	return &Peer{
		id:            id,
		signal:        signal,
		transports:    make(map[domain.TransportID]ports.WebRtcTransport),
		producers:     make(map[domain.ProducerID]ports.Producer),
		consumers:     make(map[domain.ConsumerID]ports.Consumer),
		dataProducers: make(map[domain.DataProducerID]ports.DataProducer),
		dataConsumers: make(map[domain.DataConsumerID]ports.DataConsumer),
	}
}

// ID returns the caller-supplied peer identifier.
func (p *Peer) ID() domain.PeerID {
	return p.id
}

// Joined reports whether the peer has completed the join handshake.
func (p *Peer) Joined() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.joined
}

// Info returns the peer's public view.
func (p *Peer) Info() domain.PeerInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return domain.PeerInfo{
		ID:          p.id,
		DisplayName: p.displayName,
		Device:      p.device,
	}
}

// RtpCapabilities returns the declared media capabilities, nil if not
// declared.
func (p *Peer) RtpCapabilities() *domain.RtpCapabilities {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rtpCapabilities
}

// SctpCapabilities returns the declared data-channel capabilities, nil if
// not declared.
func (p *Peer) SctpCapabilities() *domain.SctpCapabilities {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sctpCapabilities
}

func (p *Peer) setDisplayName(name string) (old string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	old = p.displayName
	p.displayName = name
	return old
}

func (p *Peer) markJoined(displayName string, device domain.DeviceInfo, rtp *domain.RtpCapabilities, sctp *domain.SctpCapabilities) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.joined = true
	p.displayName = displayName
	p.device = device
	p.rtpCapabilities = rtp
	p.sctpCapabilities = sctp
}

func (p *Peer) addTransport(t ports.WebRtcTransport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transports[t.ID()] = t
}

func (p *Peer) transport(id domain.TransportID) (ports.WebRtcTransport, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.transports[id]
	return t, ok
}

// consumingTransport returns the transport flagged for consuming; one is
// expected per peer.
func (p *Peer) consumingTransport() (ports.WebRtcTransport, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.transports {
		if t.AppData().Consuming() {
			return t, true
		}
	}
	return nil, false
}

func (p *Peer) addProducer(prod ports.Producer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.producers[prod.ID()] = prod
}

func (p *Peer) producer(id domain.ProducerID) (ports.Producer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prod, ok := p.producers[id]
	return prod, ok
}

func (p *Peer) removeProducer(id domain.ProducerID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.producers, id)
}

func (p *Peer) producerSnapshot() []ports.Producer {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ports.Producer, 0, len(p.producers))
	for _, prod := range p.producers {
		out = append(out, prod)
	}
	return out
}

func (p *Peer) addConsumer(c ports.Consumer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.consumers[c.ID()] = c
}

func (p *Peer) consumer(id domain.ConsumerID) (ports.Consumer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.consumers[id]
	return c, ok
}

func (p *Peer) removeConsumer(id domain.ConsumerID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.consumers, id)
}

func (p *Peer) consumerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.consumers)
}

func (p *Peer) producerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.producers)
}

func (p *Peer) addDataProducer(dp ports.DataProducer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dataProducers[dp.ID()] = dp
}

func (p *Peer) dataProducer(id domain.DataProducerID) (ports.DataProducer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	dp, ok := p.dataProducers[id]
	return dp, ok
}

func (p *Peer) dataProducerSnapshot() []ports.DataProducer {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ports.DataProducer, 0, len(p.dataProducers))
	for _, dp := range p.dataProducers {
		out = append(out, dp)
	}
	return out
}

func (p *Peer) addDataConsumer(dc ports.DataConsumer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dataConsumers[dc.ID()] = dc
}

func (p *Peer) dataConsumer(id domain.DataConsumerID) (ports.DataConsumer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	dc, ok := p.dataConsumers[id]
	return dc, ok
}

func (p *Peer) removeDataConsumer(id domain.DataConsumerID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.dataConsumers, id)
}

// close walks the ownership tree top-down: transports first, which the
// engine cascades into producer/consumer closure. The signaling connection
// is closed last.
func (p *Peer) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	transports := make([]ports.WebRtcTransport, 0, len(p.transports))
	for _, t := range p.transports {
		transports = append(transports, t)
	}
	p.transports = make(map[domain.TransportID]ports.WebRtcTransport)
	p.mu.Unlock()

	for _, t := range transports {
		t.Close()
	}

	p.signal.Close()
}

// Notify forwards a fire-and-forget notification to the peer's client.
// Failures are discarded; notifications are best effort.
func (p *Peer) Notify(method string, data interface{}) {
	_ = p.signal.Notify(method, data)
}
