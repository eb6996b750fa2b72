package domain

type RoomID string
type PeerID string
type WorkerID string
type TransportID string
type ProducerID string
type ConsumerID string
type DataProducerID string
type DataConsumerID string

// MediaID correlates one peer's audio and video producers captured from the
// same source.
type MediaID string
