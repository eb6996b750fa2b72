package domain

import "errors"

var (
	ErrRoomNotFound         = errors.New("room not found")
	ErrRoomExists           = errors.New("room already exists")
	ErrRoomClosed           = errors.New("room closed")
	ErrPeerNotFound         = errors.New("peer not found")
	ErrTransportNotFound    = errors.New("transport not found")
	ErrProducerNotFound     = errors.New("producer not found")
	ErrConsumerNotFound     = errors.New("consumer not found")
	ErrDataProducerNotFound = errors.New("data producer not found")
	ErrDataConsumerNotFound = errors.New("data consumer not found")
	ErrWorkerDied           = errors.New("media worker died")
	ErrCannotConsume        = errors.New("cannot consume producer")
)
