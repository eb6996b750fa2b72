package signal

import "encoding/json"

// Envelope is the wire frame shared by both directions of a signaling
// connection. Exactly one of Request/Response/Notification is set.
type Envelope struct {
	Request      bool `json:"request,omitempty"`
	Response     bool `json:"response,omitempty"`
	Notification bool `json:"notification,omitempty"`

	ID     uint64          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`

	OK          bool   `json:"ok,omitempty"`
	ErrorCode   int    `json:"errorCode,omitempty"`
	ErrorReason string `json:"errorReason,omitempty"`
}

func newRequest(id uint64, method string, data json.RawMessage) Envelope {
	return Envelope{Request: true, ID: id, Method: method, Data: data}
}

func newNotification(method string, data json.RawMessage) Envelope {
	return Envelope{Notification: true, Method: method, Data: data}
}

func newAccept(id uint64, data json.RawMessage) Envelope {
	return Envelope{Response: true, ID: id, OK: true, Data: data}
}

func newReject(id uint64, code int, reason string) Envelope {
	return Envelope{Response: true, ID: id, ErrorCode: code, ErrorReason: reason}
}
