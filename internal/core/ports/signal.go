package ports

import (
	"context"
	"encoding/json"
)

// SignalTransport is a peer's signaling connection as seen by the room.
// Notify is fire-and-forget; Request blocks until the client acknowledges
// or ctx is done.
type SignalTransport interface {
	Notify(method string, data interface{}) error
	Request(ctx context.Context, method string, data interface{}) (json.RawMessage, error)
	Close()
}
