// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import "encoding/json"

// Message is one pre-encoded text frame to be broadcast to clients.
type Message struct {
	Data []byte
}

// NewJSONMessage creates a message from pre-encoded JSON
func NewJSONMessage(data []byte) Message {
	return Message{Data: data}
}

// Event is the envelope every dashboard frame is wrapped in:
//
//	{"type":"status","data":{...}}
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// EncodeEvent wraps v in an Event of the given type.
func EncodeEvent(kind string, v any) (Message, error) {
	data, err := json.Marshal(Event{Type: kind, Data: v})
	if err != nil {
		return Message{}, err
	}
	return NewJSONMessage(data), nil
}
