package services

import (
	"context"
	"encoding/json"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/pkg/errors"
)

// Method is a signaling request method. The set is closed: anything outside
// it is rejected with UNKNOWN_METHOD before any state is touched.
type Method string

const (
	MethodGetRouterRtpCapabilities Method = "getRouterRtpCapabilities"
	MethodJoin                     Method = "join"
	MethodChangeDisplayName        Method = "changeDisplayName"

	MethodCreateWebRtcTransport  Method = "createWebRtcTransport"
	MethodConnectWebRtcTransport Method = "connectWebRtcTransport"
	MethodRestartIce             Method = "restartIce"

	MethodProduce                 Method = "produce"
	MethodCloseProducer           Method = "closeProducer"
	MethodPauseProducer           Method = "pauseProducer"
	MethodResumeProducer          Method = "resumeProducer"
	MethodPauseConsumer           Method = "pauseConsumer"
	MethodResumeConsumer          Method = "resumeConsumer"
	MethodSetConsumerPriority     Method = "setConsumerPriority"
	MethodRequestConsumerKeyFrame Method = "requestConsumerKeyFrame"
	MethodGetPreferredLayers      Method = "getPreferredLayers"
	MethodSetPreferredLayers      Method = "setPreferredLayers"
	MethodGetCurrentLayers        Method = "getCurrentLayers"
	MethodProduceData             Method = "produceData"

	MethodGetStudioSize            Method = "getStudioSize"
	MethodGetStudioPatterns        Method = "getStudioPatterns"
	MethodGetStudioPatternID       Method = "getStudioPatternId"
	MethodSetStudioPatternID       Method = "setStudioPatternId"
	MethodGetStudioLayout          Method = "getStudioLayout"
	MethodAddStudioLayout          Method = "addStudioLayout"
	MethodToMainInStudioLayout     Method = "toMainInStudioLayout"
	MethodDeleteStudioLayout       Method = "deleteStudioLayout"
	MethodGetStudioParticipants    Method = "getStudioParticipants"
	MethodAddParticipant           Method = "addParticipant"
	MethodUpdateParticipantAudio   Method = "updateParticipantAudio"
	MethodUpdateParticipantVideo   Method = "updateParticipantVideo"
	MethodDeleteParticipantByMedia Method = "deleteParticipantByMediaId"

	MethodGetCaption       Method = "getCaption"
	MethodSetCaption       Method = "setCaption"
	MethodGetCoverURL      Method = "getCoverUrl"
	MethodSetCoverURL      Method = "setCoverUrl"
	MethodGetBackgroundURL Method = "getBackgroundUrl"
	MethodSetBackgroundURL Method = "setBackgroundUrl"

	MethodGetTransportStats    Method = "getTransportStats"
	MethodGetProducerStats     Method = "getProducerStats"
	MethodGetConsumerStats     Method = "getConsumerStats"
	MethodGetDataProducerStats Method = "getDataProducerStats"
	MethodGetDataConsumerStats Method = "getDataConsumerStats"

	MethodApplyNetworkThrottle Method = "applyNetworkThrottle"
	MethodResetNetworkThrottle Method = "resetNetworkThrottle"
)

// handlerFunc processes one decoded request for one peer. The returned value
// becomes the accept payload; nil means an empty accept.
type handlerFunc func(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error)

// HandleRequest dispatches one signaling request. Unknown methods and the
// join precondition are rejected before the handler runs, so a rejected
// request never mutates room state.
func (r *Room) HandleRequest(ctx context.Context, peer *Peer, method Method, data json.RawMessage) (interface{}, error) {
	handler, ok := r.handlers[method]
	if !ok {
		return nil, errors.NewUnknownMethodError(string(method))
	}
	if method != MethodJoin && method != MethodGetRouterRtpCapabilities && !peer.Joined() {
		return nil, errors.NewNotJoinedError()
	}
	return handler(ctx, peer, data)
}

func (r *Room) buildHandlers() map[Method]handlerFunc {
	return map[Method]handlerFunc{
		MethodGetRouterRtpCapabilities: r.handleGetRouterRtpCapabilities,
		MethodJoin:                     r.handleJoin,
		MethodChangeDisplayName:        r.handleChangeDisplayName,

		MethodCreateWebRtcTransport:  r.handleCreateWebRtcTransport,
		MethodConnectWebRtcTransport: r.handleConnectWebRtcTransport,
		MethodRestartIce:             r.handleRestartIce,

		MethodProduce:                 r.handleProduce,
		MethodCloseProducer:           r.handleCloseProducer,
		MethodPauseProducer:           r.handlePauseProducer,
		MethodResumeProducer:          r.handleResumeProducer,
		MethodPauseConsumer:           r.handlePauseConsumer,
		MethodResumeConsumer:          r.handleResumeConsumer,
		MethodSetConsumerPriority:     r.handleSetConsumerPriority,
		MethodRequestConsumerKeyFrame: r.handleRequestConsumerKeyFrame,
		MethodGetPreferredLayers:      r.handleGetPreferredLayers,
		MethodSetPreferredLayers:      r.handleSetPreferredLayers,
		MethodGetCurrentLayers:        r.handleGetCurrentLayers,
		MethodProduceData:             r.handleProduceData,

		MethodGetStudioSize:            r.handleGetStudioSize,
		MethodGetStudioPatterns:        r.handleGetStudioPatterns,
		MethodGetStudioPatternID:       r.handleGetStudioPatternID,
		MethodSetStudioPatternID:       r.handleSetStudioPatternID,
		MethodGetStudioLayout:          r.handleGetStudioLayout,
		MethodAddStudioLayout:          r.handleAddStudioLayout,
		MethodToMainInStudioLayout:     r.handleToMainInStudioLayout,
		MethodDeleteStudioLayout:       r.handleDeleteStudioLayout,
		MethodGetStudioParticipants:    r.handleGetStudioParticipants,
		MethodAddParticipant:           r.handleAddParticipant,
		MethodUpdateParticipantAudio:   r.handleUpdateParticipantAudio,
		MethodUpdateParticipantVideo:   r.handleUpdateParticipantVideo,
		MethodDeleteParticipantByMedia: r.handleDeleteParticipantByMedia,

		MethodGetCaption:       r.handleGetCaption,
		MethodSetCaption:       r.handleSetCaption,
		MethodGetCoverURL:      r.handleGetCoverURL,
		MethodSetCoverURL:      r.handleSetCoverURL,
		MethodGetBackgroundURL: r.handleGetBackgroundURL,
		MethodSetBackgroundURL: r.handleSetBackgroundURL,

		MethodGetTransportStats:    r.handleGetTransportStats,
		MethodGetProducerStats:     r.handleGetProducerStats,
		MethodGetConsumerStats:     r.handleGetConsumerStats,
		MethodGetDataProducerStats: r.handleGetDataProducerStats,
		MethodGetDataConsumerStats: r.handleGetDataConsumerStats,

		MethodApplyNetworkThrottle: r.handleApplyNetworkThrottle,
		MethodResetNetworkThrottle: r.handleResetNetworkThrottle,
	}
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return errors.NewInvalidInputError("missing request data")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.NewInvalidInputError("malformed request data: " + err.Error())
	}
	return nil
}

func (r *Room) handleGetRouterRtpCapabilities(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	return r.router.RtpCapabilities(), nil
}

func (r *Room) handleJoin(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	if peer.Joined() {
		return nil, errors.NewAlreadyJoinedError()
	}

	var req struct {
		DisplayName      string                   `json:"displayName"`
		Device           domain.DeviceInfo        `json:"device"`
		RtpCapabilities  *domain.RtpCapabilities  `json:"rtpCapabilities"`
		SctpCapabilities *domain.SctpCapabilities `json:"sctpCapabilities"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	others := r.joinedPeers(peer.ID())

	peer.markJoined(req.DisplayName, req.Device, req.RtpCapabilities, req.SctpCapabilities)

	peerInfos := make([]domain.PeerInfo, 0, len(others))
	for _, other := range others {
		peerInfos = append(peerInfos, other.Info())
	}

	// Wire every existing producer to the new peer. Each pairwise creation
	// is internally sequential but pairs do not wait for each other, and
	// none of them blocks the accept.
	for _, other := range others {
		other := other
		for _, producer := range other.producerSnapshot() {
			producer := producer
			go r.createConsumer(ctx, peer, other, producer)
		}
		for _, dataProducer := range other.dataProducerSnapshot() {
			dataProducer := dataProducer
			go r.createDataConsumer(ctx, peer, other, dataProducer)
		}
	}

	r.broadcast("newPeer", peer.Info(), peer.ID())

	r.logger.Infow("peer joined", "peer_id", peer.ID(), "display_name", req.DisplayName)

	return map[string]interface{}{"peers": peerInfos}, nil
}

func (r *Room) handleChangeDisplayName(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		DisplayName string `json:"displayName"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	old := peer.setDisplayName(req.DisplayName)

	r.broadcast("peerDisplayNameChanged", map[string]interface{}{
		"peerId":         peer.ID(),
		"displayName":    req.DisplayName,
		"oldDisplayName": old,
	}, peer.ID())

	return nil, nil
}

func (r *Room) handleCreateWebRtcTransport(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		ForceTcp         bool                     `json:"forceTcp"`
		Producing        bool                     `json:"producing"`
		Consuming        bool                     `json:"consuming"`
		SctpCapabilities *domain.SctpCapabilities `json:"sctpCapabilities"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	opts := ports.WebRtcTransportOptions{
		ForceTcp:      req.ForceTcp,
		ProducingHint: req.Producing,
		ConsumingHint: req.Consuming,
		AppData: domain.AppData{
			"peerId":    string(peer.ID()),
			"producing": req.Producing,
			"consuming": req.Consuming,
		},
	}
	if req.SctpCapabilities != nil {
		opts.EnableSctp = true
		opts.SctpStreams = req.SctpCapabilities.NumStreams
	}

	transport, err := r.router.CreateWebRtcTransport(ctx, opts)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "failed to create transport", 500)
	}

	peer.addTransport(transport)

	if req.Consuming {
		transport.OnTrace(func(trace domain.BweTrace) {
			peer.Notify("downlinkBwe", trace)
		})
	}

	return transport.Info(), nil
}

func (r *Room) handleConnectWebRtcTransport(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		TransportID    domain.TransportID `json:"transportId"`
		DtlsParameters json.RawMessage    `json:"dtlsParameters"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	transport, ok := peer.transport(req.TransportID)
	if !ok {
		return nil, errors.NewNotFoundError("transport")
	}
	if err := transport.Connect(ctx, req.DtlsParameters); err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "transport connect failed", 500)
	}
	return nil, nil
}

func (r *Room) handleRestartIce(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		TransportID domain.TransportID `json:"transportId"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	transport, ok := peer.transport(req.TransportID)
	if !ok {
		return nil, errors.NewNotFoundError("transport")
	}
	iceParameters, err := transport.RestartIce(ctx)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "ice restart failed", 500)
	}
	return map[string]interface{}{"iceParameters": iceParameters}, nil
}

func (r *Room) handleProduce(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		TransportID   domain.TransportID   `json:"transportId"`
		Kind          domain.MediaKind     `json:"kind"`
		RtpParameters domain.RtpParameters `json:"rtpParameters"`
		AppData       domain.AppData       `json:"appData"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	if req.Kind != domain.MediaKindAudio && req.Kind != domain.MediaKindVideo {
		return nil, errors.NewInvalidInputError("invalid media kind")
	}

	transport, ok := peer.transport(req.TransportID)
	if !ok {
		return nil, errors.NewNotFoundError("transport")
	}

	appData := req.AppData
	if appData == nil {
		appData = domain.AppData{}
	}
	appData["peerId"] = string(peer.ID())

	producer, err := transport.Produce(ctx, ports.ProduceOptions{
		Kind:          req.Kind,
		RtpParameters: req.RtpParameters,
		AppData:       appData,
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "produce failed", 500)
	}

	peer.addProducer(producer)

	producerID := producer.ID()
	producer.OnScore(func(score []domain.ProducerScore) {
		peer.Notify("producerScore", map[string]interface{}{
			"producerId": producerID,
			"score":      score,
		})
	})

	// Audible producers feed the active-speaker observer. Registration is
	// best-effort: a failure is logged and the produce still succeeds.
	if producer.Kind() == domain.MediaKindAudio {
		if err := r.observer.AddProducer(ctx, producerID); err != nil {
			r.logger.Warnw("audio level observer add failed", "producer_id", producerID, "error", err)
		}
	}

	r.fanOutProducer(ctx, peer, producer)

	return map[string]interface{}{"id": producerID}, nil
}

func (r *Room) handleCloseProducer(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		ProducerID domain.ProducerID `json:"producerId"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	producer, ok := peer.producer(req.ProducerID)
	if !ok {
		return nil, errors.NewNotFoundError("producer")
	}

	if producer.Kind() == domain.MediaKindAudio {
		if err := r.observer.RemoveProducer(ctx, req.ProducerID); err != nil {
			r.logger.Warnw("audio level observer remove failed", "producer_id", req.ProducerID, "error", err)
		}
	}

	producer.Close()
	peer.removeProducer(req.ProducerID)

	// An on-air producer leaving also leaves the studio canvas.
	if len(r.studio.Layout()) != len(r.studio.DeleteByProducer(req.ProducerID)) {
		r.broadcast("studioLayoutUpdated", r.studio.Layout(), "")
	}

	return nil, nil
}

func (r *Room) handlePauseProducer(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		ProducerID domain.ProducerID `json:"producerId"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	producer, ok := peer.producer(req.ProducerID)
	if !ok {
		return nil, errors.NewNotFoundError("producer")
	}
	if err := producer.Pause(ctx); err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "producer pause failed", 500)
	}
	return nil, nil
}

func (r *Room) handleResumeProducer(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		ProducerID domain.ProducerID `json:"producerId"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	producer, ok := peer.producer(req.ProducerID)
	if !ok {
		return nil, errors.NewNotFoundError("producer")
	}
	if err := producer.Resume(ctx); err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "producer resume failed", 500)
	}
	return nil, nil
}

func (r *Room) peerConsumer(peer *Peer, data json.RawMessage) (ports.Consumer, error) {
	var req struct {
		ConsumerID domain.ConsumerID `json:"consumerId"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	consumer, ok := peer.consumer(req.ConsumerID)
	if !ok {
		return nil, errors.NewNotFoundError("consumer")
	}
	return consumer, nil
}

func (r *Room) handlePauseConsumer(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	consumer, err := r.peerConsumer(peer, data)
	if err != nil {
		return nil, err
	}
	if err := consumer.Pause(ctx); err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "consumer pause failed", 500)
	}
	return nil, nil
}

func (r *Room) handleResumeConsumer(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	consumer, err := r.peerConsumer(peer, data)
	if err != nil {
		return nil, err
	}
	if err := consumer.Resume(ctx); err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "consumer resume failed", 500)
	}
	return nil, nil
}

func (r *Room) handleSetConsumerPriority(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		ConsumerID domain.ConsumerID `json:"consumerId"`
		Priority   int               `json:"priority"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	consumer, ok := peer.consumer(req.ConsumerID)
	if !ok {
		return nil, errors.NewNotFoundError("consumer")
	}
	if err := consumer.SetPriority(ctx, req.Priority); err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "set priority failed", 500)
	}
	return nil, nil
}

func (r *Room) handleRequestConsumerKeyFrame(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	consumer, err := r.peerConsumer(peer, data)
	if err != nil {
		return nil, err
	}
	if err := consumer.RequestKeyFrame(ctx); err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "keyframe request failed", 500)
	}
	return nil, nil
}

func (r *Room) handleGetPreferredLayers(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	consumer, err := r.peerConsumer(peer, data)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"layers": consumer.PreferredLayers()}, nil
}

func (r *Room) handleSetPreferredLayers(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		ConsumerID    domain.ConsumerID `json:"consumerId"`
		SpatialLayer  int               `json:"spatialLayer"`
		TemporalLayer int               `json:"temporalLayer"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	consumer, ok := peer.consumer(req.ConsumerID)
	if !ok {
		return nil, errors.NewNotFoundError("consumer")
	}
	layers := domain.ConsumerLayers{
		SpatialLayer:  req.SpatialLayer,
		TemporalLayer: req.TemporalLayer,
	}
	if err := consumer.SetPreferredLayers(ctx, layers); err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "set preferred layers failed", 500)
	}
	return nil, nil
}

func (r *Room) handleGetCurrentLayers(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	consumer, err := r.peerConsumer(peer, data)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"layers": consumer.CurrentLayers()}, nil
}

func (r *Room) handleProduceData(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		TransportID          domain.TransportID          `json:"transportId"`
		SctpStreamParameters domain.SctpStreamParameters `json:"sctpStreamParameters"`
		Label                string                      `json:"label"`
		Protocol             string                      `json:"protocol"`
		AppData              domain.AppData              `json:"appData"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	transport, ok := peer.transport(req.TransportID)
	if !ok {
		return nil, errors.NewNotFoundError("transport")
	}

	appData := req.AppData
	if appData == nil {
		appData = domain.AppData{}
	}
	appData["peerId"] = string(peer.ID())

	dataProducer, err := transport.ProduceData(ctx, ports.ProduceDataOptions{
		SctpStreamParameters: req.SctpStreamParameters,
		Label:                req.Label,
		Protocol:             req.Protocol,
		AppData:              appData,
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "produceData failed", 500)
	}

	peer.addDataProducer(dataProducer)

	r.fanOutDataProducer(ctx, peer, dataProducer)

	return map[string]interface{}{"id": dataProducer.ID()}, nil
}

func (r *Room) handleGetStudioSize(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	return r.studio.Size(), nil
}

func (r *Room) handleGetStudioPatterns(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	return domain.StudioPatterns, nil
}

func (r *Room) handleGetStudioPatternID(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	return map[string]interface{}{"patternId": r.studio.PatternID()}, nil
}

func (r *Room) handleSetStudioPatternID(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		PatternID int `json:"patternId"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	valid := false
	for _, pattern := range domain.StudioPatterns {
		if pattern.ID == req.PatternID {
			valid = true
			break
		}
	}
	if !valid {
		return nil, errors.NewInvalidInputError("unknown pattern id")
	}

	r.studio.SetPatternID(req.PatternID)
	r.broadcast("studioPatternIdUpdated", map[string]interface{}{"patternId": req.PatternID}, peer.ID())
	return nil, nil
}

func (r *Room) handleGetStudioLayout(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	return r.studio.Layout(), nil
}

func (r *Room) handleAddStudioLayout(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var item domain.StudioItem
	if err := decode(data, &item); err != nil {
		return nil, err
	}

	layout := r.studio.AddMedia(item)
	r.broadcast("studioLayoutUpdated", layout, "")
	return layout, nil
}

func (r *Room) handleToMainInStudioLayout(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var item domain.StudioItem
	if err := decode(data, &item); err != nil {
		return nil, err
	}

	layout := r.studio.ToMain(item)
	r.broadcast("studioLayoutUpdated", layout, "")
	return layout, nil
}

func (r *Room) handleDeleteStudioLayout(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var item domain.StudioItem
	if err := decode(data, &item); err != nil {
		return nil, err
	}

	layout := r.studio.DeleteMedia(item)
	r.broadcast("studioLayoutUpdated", layout, "")
	return layout, nil
}

func (r *Room) handleGetStudioParticipants(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	return r.studio.Participants(), nil
}

func (r *Room) handleAddParticipant(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var participant domain.Participant
	if err := decode(data, &participant); err != nil {
		return nil, err
	}

	participants := r.studio.AddParticipant(participant)
	r.broadcast("studioParticipantsUpdated", participants, "")
	return participants, nil
}

func (r *Room) handleUpdateParticipantAudio(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		MediaID domain.MediaID `json:"mediaId"`
		Enabled bool           `json:"audio"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	participants := r.studio.SetParticipantAudio(req.MediaID, req.Enabled)
	r.broadcast("studioParticipantsUpdated", participants, "")
	return participants, nil
}

func (r *Room) handleUpdateParticipantVideo(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		MediaID domain.MediaID `json:"mediaId"`
		Enabled bool           `json:"video"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	participants := r.studio.SetParticipantVideo(req.MediaID, req.Enabled)
	r.broadcast("studioParticipantsUpdated", participants, "")
	return participants, nil
}

func (r *Room) handleDeleteParticipantByMedia(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		MediaID domain.MediaID `json:"mediaId"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	participants := r.studio.DeleteParticipantByMediaID(req.MediaID)
	r.broadcast("studioParticipantsUpdated", participants, "")
	return participants, nil
}

func (r *Room) handleGetCaption(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	return map[string]interface{}{"caption": r.Caption()}, nil
}

func (r *Room) handleSetCaption(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		Caption string `json:"caption"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	r.SetCaption(req.Caption)
	return nil, nil
}

func (r *Room) handleGetCoverURL(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	return map[string]interface{}{"coverUrl": r.CoverURL()}, nil
}

func (r *Room) handleSetCoverURL(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		CoverURL string `json:"coverUrl"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	r.SetCoverURL(req.CoverURL)
	return nil, nil
}

func (r *Room) handleGetBackgroundURL(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	return map[string]interface{}{"backgroundUrl": r.BackgroundURL()}, nil
}

func (r *Room) handleSetBackgroundURL(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		BackgroundURL string `json:"backgroundUrl"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	r.SetBackgroundURL(req.BackgroundURL)
	return nil, nil
}

func (r *Room) handleGetTransportStats(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		TransportID domain.TransportID `json:"transportId"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	transport, ok := peer.transport(req.TransportID)
	if !ok {
		return nil, errors.NewNotFoundError("transport")
	}
	stats, err := transport.GetStats(ctx)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "transport stats failed", 500)
	}
	return stats, nil
}

func (r *Room) handleGetProducerStats(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		ProducerID domain.ProducerID `json:"producerId"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	producer, ok := peer.producer(req.ProducerID)
	if !ok {
		return nil, errors.NewNotFoundError("producer")
	}
	stats, err := producer.GetStats(ctx)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "producer stats failed", 500)
	}
	return stats, nil
}

func (r *Room) handleGetConsumerStats(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	consumer, err := r.peerConsumer(peer, data)
	if err != nil {
		return nil, err
	}
	stats, err := consumer.GetStats(ctx)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "consumer stats failed", 500)
	}
	return stats, nil
}

func (r *Room) handleGetDataProducerStats(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		DataProducerID domain.DataProducerID `json:"dataProducerId"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	dataProducer, ok := peer.dataProducer(req.DataProducerID)
	if !ok {
		return nil, errors.NewNotFoundError("dataProducer")
	}
	stats, err := dataProducer.GetStats(ctx)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "dataProducer stats failed", 500)
	}
	return stats, nil
}

func (r *Room) handleGetDataConsumerStats(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		DataConsumerID domain.DataConsumerID `json:"dataConsumerId"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	dataConsumer, ok := peer.dataConsumer(req.DataConsumerID)
	if !ok {
		return nil, errors.NewNotFoundError("dataConsumer")
	}
	stats, err := dataConsumer.GetStats(ctx)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "dataConsumer stats failed", 500)
	}
	return stats, nil
}

func (r *Room) handleApplyNetworkThrottle(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		Secret   string                `json:"secret"`
		Throttle domain.ThrottleParams `json:"throttle"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	if r.cfg.ThrottleSecret == "" || req.Secret != r.cfg.ThrottleSecret {
		return nil, errors.NewForbiddenError("invalid throttle secret")
	}

	if err := r.worker.ApplyNetworkThrottle(ctx, req.Throttle); err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "network throttle failed", 500)
	}
	r.logger.Warnw("network throttle applied", "peer_id", peer.ID(), "throttle", req.Throttle)
	return nil, nil
}

func (r *Room) handleResetNetworkThrottle(ctx context.Context, peer *Peer, data json.RawMessage) (interface{}, error) {
	var req struct {
		Secret string `json:"secret"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	if r.cfg.ThrottleSecret == "" || req.Secret != r.cfg.ThrottleSecret {
		return nil, errors.NewForbiddenError("invalid throttle secret")
	}

	if err := r.worker.ResetNetworkThrottle(ctx); err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal, "network throttle reset failed", 500)
	}
	r.logger.Warnw("network throttle reset", "peer_id", peer.ID())
	return nil, nil
}
