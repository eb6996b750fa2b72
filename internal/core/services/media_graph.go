package services

import (
	"context"
	"sync"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
)

// chatDataLabel is the only data-channel label fanned out to other peers.
const chatDataLabel = "chat"

// PairResult is the outcome of one pairwise consumer creation during a
// fan-out.
type PairResult struct {
	ConsumerPeer domain.PeerID
	ConsumerID   domain.ConsumerID
	Skipped      bool
	Reason       string
	Err          error
}

// FanOutReport aggregates the pairwise outcomes of wiring one producer to
// every other joined peer.
type FanOutReport struct {
	ProducerID domain.ProducerID
	Results    []PairResult
}

// Created counts successfully created consumers.
func (r *FanOutReport) Created() int {
	n := 0
	for _, res := range r.Results {
		if !res.Skipped && res.Err == nil {
			n++
		}
	}
	return n
}

// fanOutProducer wires the given producer to every other joined peer. Each
// pairwise creation runs independently; a failing pair never fails the
// group. The report is returned for observability.
func (r *Room) fanOutProducer(ctx context.Context, producerPeer *Peer, producer ports.Producer) *FanOutReport {
	others := r.joinedPeers(producerPeer.ID())

	report := &FanOutReport{
		ProducerID: producer.ID(),
		Results:    make([]PairResult, len(others)),
	}

	var wg sync.WaitGroup
	for i, consumerPeer := range others {
		wg.Add(1)
		go func(i int, consumerPeer *Peer) {
			defer wg.Done()
			report.Results[i] = r.createConsumer(ctx, consumerPeer, producerPeer, producer)
		}(i, consumerPeer)
	}
	wg.Wait()

	r.logger.Debugw("producer fan-out finished",
		"producer_id", producer.ID(),
		"pairs", len(report.Results),
		"created", report.Created(),
	)
	return report
}

// createConsumer attempts to make consumerPeer receive producer. It is a
// no-op when the consuming peer declared no media capabilities or the
// capabilities cannot receive this producer. The consumer starts paused and
// is resumed only after the client acknowledges the newConsumer request.
func (r *Room) createConsumer(ctx context.Context, consumerPeer, producerPeer *Peer, producer ports.Producer) PairResult {
	result := PairResult{ConsumerPeer: consumerPeer.ID()}

	caps := consumerPeer.RtpCapabilities()
	if caps == nil {
		result.Skipped = true
		result.Reason = "no rtp capabilities"
		return result
	}
	if !r.router.CanConsume(producer.ID(), *caps) {
		result.Skipped = true
		result.Reason = "incompatible capabilities"
		return result
	}

	transport, ok := consumerPeer.consumingTransport()
	if !ok {
		r.logger.Warnw("no consuming transport for peer", "peer_id", consumerPeer.ID())
		result.Skipped = true
		result.Reason = "no consuming transport"
		return result
	}

	consumer, err := transport.Consume(ctx, ports.ConsumeOptions{
		ProducerID:      producer.ID(),
		RtpCapabilities: *caps,
		Paused:          true,
		AppData:         producer.AppData(),
	})
	if err != nil {
		r.logger.Warnw("consumer creation failed",
			"consumer_peer", consumerPeer.ID(),
			"producer_id", producer.ID(),
			"error", err,
		)
		result.Err = err
		return result
	}

	consumerPeer.addConsumer(consumer)
	result.ConsumerID = consumer.ID()

	consumerID := consumer.ID()
	consumer.OnTransportClose(func() {
		consumerPeer.removeConsumer(consumerID)
	})
	consumer.OnProducerClose(func() {
		consumerPeer.removeConsumer(consumerID)
		consumerPeer.Notify("consumerClosed", map[string]interface{}{"consumerId": consumerID})
	})
	consumer.OnProducerPause(func() {
		consumerPeer.Notify("consumerPaused", map[string]interface{}{"consumerId": consumerID})
	})
	consumer.OnProducerResume(func() {
		consumerPeer.Notify("consumerResumed", map[string]interface{}{"consumerId": consumerID})
	})
	consumer.OnScore(func(score domain.ConsumerScore) {
		consumerPeer.Notify("consumerScore", map[string]interface{}{
			"consumerId": consumerID,
			"score":      score,
		})
	})
	consumer.OnLayersChange(func(layers *domain.ConsumerLayers) {
		consumerPeer.Notify("consumerLayersChanged", map[string]interface{}{
			"consumerId": consumerID,
			"layers":     layers,
		})
	})

	// The client must acknowledge before the consumer is unpaused. A failure
	// here is logged and leaves the consumer paused; it is not rolled back.
	go r.finishConsumer(consumerPeer, producerPeer, consumer)

	return result
}

func (r *Room) finishConsumer(consumerPeer, producerPeer *Peer, consumer ports.Consumer) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
	defer cancel()

	_, err := consumerPeer.signal.Request(ctx, "newConsumer", map[string]interface{}{
		"peerId":         producerPeer.ID(),
		"producerId":     consumer.ProducerID(),
		"id":             consumer.ID(),
		"kind":           consumer.Kind(),
		"rtpParameters":  consumer.RtpParameters(),
		"type":           consumer.Type(),
		"appData":        consumer.AppData(),
		"producerPaused": consumer.ProducerPaused(),
	})
	if err != nil {
		r.logger.Warnw("newConsumer request failed",
			"consumer_peer", consumerPeer.ID(),
			"consumer_id", consumer.ID(),
			"error", err,
		)
		return
	}

	if err := consumer.Resume(ctx); err != nil {
		r.logger.Warnw("consumer resume failed", "consumer_id", consumer.ID(), "error", err)
		return
	}

	consumerPeer.Notify("consumerScore", map[string]interface{}{
		"consumerId": consumer.ID(),
		"score":      consumer.Score(),
	})
}

// fanOutDataProducer wires the given data producer to every other joined
// peer; symmetric to media fan-out but gated on declared data-channel
// capabilities and on the channel label.
func (r *Room) fanOutDataProducer(ctx context.Context, producerPeer *Peer, dataProducer ports.DataProducer) {
	for _, consumerPeer := range r.joinedPeers(producerPeer.ID()) {
		r.createDataConsumer(ctx, consumerPeer, producerPeer, dataProducer)
	}
}

func (r *Room) createDataConsumer(ctx context.Context, consumerPeer, producerPeer *Peer, dataProducer ports.DataProducer) {
	// Only chat channels are distributed automatically. Other labels are
	// accepted from the producer but stay undistributed.
	if dataProducer.Label() != chatDataLabel {
		return
	}
	if consumerPeer.SctpCapabilities() == nil {
		return
	}

	transport, ok := consumerPeer.consumingTransport()
	if !ok {
		r.logger.Warnw("no consuming transport for peer", "peer_id", consumerPeer.ID())
		return
	}

	dataConsumer, err := transport.ConsumeData(ctx, ports.ConsumeDataOptions{
		DataProducerID: dataProducer.ID(),
		AppData:        dataProducer.AppData(),
	})
	if err != nil {
		r.logger.Warnw("data consumer creation failed",
			"consumer_peer", consumerPeer.ID(),
			"data_producer_id", dataProducer.ID(),
			"error", err,
		)
		return
	}

	consumerPeer.addDataConsumer(dataConsumer)

	dataConsumerID := dataConsumer.ID()
	dataConsumer.OnTransportClose(func() {
		consumerPeer.removeDataConsumer(dataConsumerID)
	})
	dataConsumer.OnDataProducerClose(func() {
		consumerPeer.removeDataConsumer(dataConsumerID)
		consumerPeer.Notify("dataConsumerClosed", map[string]interface{}{"dataConsumerId": dataConsumerID})
	})

	go func() {
		reqCtx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
		defer cancel()

		_, err := consumerPeer.signal.Request(reqCtx, "newDataConsumer", map[string]interface{}{
			"peerId":               producerPeer.ID(),
			"dataProducerId":       dataProducer.ID(),
			"id":                   dataConsumer.ID(),
			"sctpStreamParameters": dataConsumer.SctpStreamParameters(),
			"label":                dataConsumer.Label(),
			"protocol":             dataConsumer.Protocol(),
			"appData":              dataConsumer.AppData(),
		})
		if err != nil {
			r.logger.Warnw("newDataConsumer request failed",
				"consumer_peer", consumerPeer.ID(),
				"data_consumer_id", dataConsumer.ID(),
				"error", err,
			)
		}
	}()
}
