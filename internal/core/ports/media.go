package ports

import (
	"context"
	"encoding/json"

	"stagecast/internal/core/domain"
)

// MediaEngine is the seam to the media-processing backend. The orchestrator
// only drives capability negotiation and entity lifecycle through it; media
// bytes never cross this interface.
type MediaEngine interface {
	CreateWorker(ctx context.Context) (Worker, error)
}

// Worker is one unit of the media-processing backend. Workers are created at
// startup and never destroyed; worker death is fatal for the process.
type Worker interface {
	ID() domain.WorkerID
	// RoomCount reports live routers hosted by this worker; zero means the
	// worker is idle.
	RoomCount() int
	CreateRouter(ctx context.Context, codecs []domain.RtpCodecCapability) (Router, error)
	ApplyNetworkThrottle(ctx context.Context, params domain.ThrottleParams) error
	ResetNetworkThrottle(ctx context.Context) error
	// OnDied registers a handler invoked if the worker process dies.
	OnDied(fn func(err error))
}

// Router is the per-room media routing unit living on a worker.
type Router interface {
	ID() string
	RtpCapabilities() domain.RtpCapabilities
	CreateWebRtcTransport(ctx context.Context, opts WebRtcTransportOptions) (WebRtcTransport, error)
	CreateAudioLevelObserver(ctx context.Context, opts AudioLevelObserverOptions) (AudioLevelObserver, error)
	// CanConsume reports whether an endpoint with the given capabilities can
	// receive the identified producer.
	CanConsume(producerID domain.ProducerID, caps domain.RtpCapabilities) bool
	Close()
}

// WebRtcTransportOptions configures transport creation.
type WebRtcTransportOptions struct {
	EnableSctp    bool
	SctpStreams   domain.NumSctpStreams
	AppData       domain.AppData
	ForceTcp      bool
	ProducingHint bool
	ConsumingHint bool
}

// TransportInfo is the connection description handed back to the client.
type TransportInfo struct {
	ID             domain.TransportID `json:"id"`
	IceParameters  json.RawMessage    `json:"iceParameters"`
	IceCandidates  json.RawMessage    `json:"iceCandidates"`
	DtlsParameters json.RawMessage    `json:"dtlsParameters"`
	SctpParameters json.RawMessage    `json:"sctpParameters,omitempty"`
}

// WebRtcTransport is a single peer-facing transport.
type WebRtcTransport interface {
	ID() domain.TransportID
	Info() TransportInfo
	AppData() domain.AppData
	Connect(ctx context.Context, dtlsParameters json.RawMessage) error
	RestartIce(ctx context.Context) (json.RawMessage, error)
	Produce(ctx context.Context, opts ProduceOptions) (Producer, error)
	Consume(ctx context.Context, opts ConsumeOptions) (Consumer, error)
	ProduceData(ctx context.Context, opts ProduceDataOptions) (DataProducer, error)
	ConsumeData(ctx context.Context, opts ConsumeDataOptions) (DataConsumer, error)
	GetStats(ctx context.Context) (json.RawMessage, error)
	// OnTrace registers a bandwidth-estimation trace handler.
	OnTrace(fn func(trace domain.BweTrace))
	Close()
}

type ProduceOptions struct {
	Kind          domain.MediaKind
	RtpParameters domain.RtpParameters
	Paused        bool
	AppData       domain.AppData
}

type ConsumeOptions struct {
	ProducerID      domain.ProducerID
	RtpCapabilities domain.RtpCapabilities
	Paused          bool
	AppData         domain.AppData
}

type ProduceDataOptions struct {
	SctpStreamParameters domain.SctpStreamParameters
	Label                string
	Protocol             string
	AppData              domain.AppData
}

type ConsumeDataOptions struct {
	DataProducerID domain.DataProducerID
	AppData        domain.AppData
}

// Producer is a published audio or video source.
type Producer interface {
	ID() domain.ProducerID
	Kind() domain.MediaKind
	Paused() bool
	AppData() domain.AppData
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	GetStats(ctx context.Context) (json.RawMessage, error)
	OnScore(fn func(score []domain.ProducerScore))
	Close()
}

// Consumer is a receive-side handle onto another peer's producer. Lifecycle
// events are delivered through explicit callback registration; each callback
// slot holds a single handler.
type Consumer interface {
	ID() domain.ConsumerID
	ProducerID() domain.ProducerID
	Kind() domain.MediaKind
	Type() string
	RtpParameters() domain.RtpParameters
	Paused() bool
	ProducerPaused() bool
	AppData() domain.AppData
	Score() domain.ConsumerScore
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	SetPriority(ctx context.Context, priority int) error
	SetPreferredLayers(ctx context.Context, layers domain.ConsumerLayers) error
	PreferredLayers() *domain.ConsumerLayers
	CurrentLayers() *domain.ConsumerLayers
	RequestKeyFrame(ctx context.Context) error
	GetStats(ctx context.Context) (json.RawMessage, error)
	OnTransportClose(fn func())
	OnProducerClose(fn func())
	OnProducerPause(fn func())
	OnProducerResume(fn func())
	OnScore(fn func(score domain.ConsumerScore))
	OnLayersChange(fn func(layers *domain.ConsumerLayers))
	Close()
}

// DataProducer is a published data channel.
type DataProducer interface {
	ID() domain.DataProducerID
	Label() string
	Protocol() string
	SctpStreamParameters() domain.SctpStreamParameters
	AppData() domain.AppData
	GetStats(ctx context.Context) (json.RawMessage, error)
	Close()
}

// DataConsumer is a receive-side handle onto another peer's data producer.
type DataConsumer interface {
	ID() domain.DataConsumerID
	DataProducerID() domain.DataProducerID
	Label() string
	Protocol() string
	SctpStreamParameters() domain.SctpStreamParameters
	AppData() domain.AppData
	GetStats(ctx context.Context) (json.RawMessage, error)
	OnTransportClose(fn func())
	OnDataProducerClose(fn func())
	Close()
}

// AudioLevelObserverOptions configures the audio-activity observer.
type AudioLevelObserverOptions struct {
	MaxEntries int
	Threshold  int // dBvo, negative
	IntervalMs int
}

// AudioLevelObserver reports which producers are currently audible.
type AudioLevelObserver interface {
	AddProducer(ctx context.Context, producerID domain.ProducerID) error
	RemoveProducer(ctx context.Context, producerID domain.ProducerID) error
	OnVolumes(fn func(volumes []domain.AudioVolume))
	OnSilence(fn func())
	Close()
}
