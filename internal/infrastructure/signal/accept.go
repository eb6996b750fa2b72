package signal

import "encoding/json"

// marshalAccept turns a handler result into the accept payload. A nil
// result becomes an empty object so clients can always parse data.
func marshalAccept(result interface{}) (json.RawMessage, error) {
	if result == nil {
		return json.RawMessage(`{}`), nil
	}
	if raw, ok := result.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(result)
}
