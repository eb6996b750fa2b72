package domain

import (
	"encoding/json"

	"github.com/pion/webrtc/v3"
)

// MediaKind is the kind of a produced media source.
type MediaKind string

const (
	MediaKindAudio MediaKind = "audio"
	MediaKindVideo MediaKind = "video"
)

// RtpCapabilities describes the codec set a router or client endpoint can
// handle. Codec entries reuse pion's capability type.
type RtpCapabilities struct {
	Codecs           []RtpCodecCapability `json:"codecs"`
	HeaderExtensions []string             `json:"headerExtensions,omitempty"`
}

// RtpCodecCapability is one negotiable codec.
type RtpCodecCapability struct {
	Kind  MediaKind                 `json:"kind"`
	Codec webrtc.RTPCodecCapability `json:"codec"`
}

// DefaultCodecs is the codec set routers are created with: Opus for audio,
// VP8 and H264 for video.
func DefaultCodecs() []RtpCodecCapability {
	return []RtpCodecCapability{
		{Kind: MediaKindAudio, Codec: webrtc.RTPCodecCapability{MimeType: "audio/opus", ClockRate: 48000, Channels: 2}},
		{Kind: MediaKindVideo, Codec: webrtc.RTPCodecCapability{MimeType: "video/VP8", ClockRate: 90000}},
		{Kind: MediaKindVideo, Codec: webrtc.RTPCodecCapability{MimeType: "video/H264", ClockRate: 90000, SDPFmtpLine: "packetization-mode=1;profile-level-id=42e01f;level-asymmetry-allowed=1"}},
	}
}

// SctpCapabilities describes data-channel capabilities declared by a client.
type SctpCapabilities struct {
	NumStreams NumSctpStreams `json:"numStreams"`
}

type NumSctpStreams struct {
	OS  int `json:"OS"`
	MIS int `json:"MIS"`
}

// RtpParameters is the opaque negotiated send/receive description exchanged
// with clients. The orchestrator forwards it, it never interprets it.
type RtpParameters = json.RawMessage

// SctpStreamParameters describe one data-channel stream.
type SctpStreamParameters struct {
	StreamID          int  `json:"streamId"`
	Ordered           bool `json:"ordered"`
	MaxPacketLifeTime int  `json:"maxPacketLifeTime,omitempty"`
	MaxRetransmits    int  `json:"maxRetransmits,omitempty"`
}

// AppData is free-form application metadata attached to transports,
// producers and consumers.
type AppData map[string]interface{}

// PeerIDValue extracts the owning peer id if present.
func (a AppData) PeerIDValue() PeerID {
	if a == nil {
		return ""
	}
	if v, ok := a["peerId"].(string); ok {
		return PeerID(v)
	}
	return ""
}

// MediaIDValue extracts the capture correlation id if present.
func (a AppData) MediaIDValue() MediaID {
	if a == nil {
		return ""
	}
	if v, ok := a["mediaId"].(string); ok {
		return MediaID(v)
	}
	return ""
}

// Consuming reports whether a transport is flagged as the peer's consuming
// transport.
func (a AppData) Consuming() bool {
	if a == nil {
		return false
	}
	v, ok := a["consuming"].(bool)
	return ok && v
}

// ConsumerScore is the transmission score reported for a consumer.
type ConsumerScore struct {
	Score         int `json:"score"`
	ProducerScore int `json:"producerScore"`
}

// ProducerScore is the per-stream score reported for a producer.
type ProducerScore struct {
	Ssrc  uint32 `json:"ssrc"`
	Rid   string `json:"rid,omitempty"`
	Score int    `json:"score"`
}

// ConsumerLayers is the spatial/temporal layer selection of a consumer.
type ConsumerLayers struct {
	SpatialLayer  int `json:"spatialLayer"`
	TemporalLayer int `json:"temporalLayer"`
}

// AudioVolume carries one producer's audio level as observed by the
// audio-activity observer.
type AudioVolume struct {
	ProducerID ProducerID `json:"producerId"`
	AppData    AppData    `json:"-"`
	Volume     int        `json:"volume"` // dBvo, negative
}

// BweTrace is a downlink bandwidth-estimation sample raised by a consuming
// transport.
type BweTrace struct {
	DesiredBitrate   int `json:"desiredBitrate"`
	EffectiveBitrate int `json:"effectiveBitrate"`
	AvailableBitrate int `json:"availableBitrate"`
}

// ThrottleParams shapes the network of a worker for testing purposes.
type ThrottleParams struct {
	UplinkKbps   int `json:"uplink"`
	DownlinkKbps int `json:"downlink"`
	RttMs        int `json:"rtt"`
	PacketLoss   int `json:"packetLoss"`
}
