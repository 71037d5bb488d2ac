package message

import "encoding/json"

// Kind identifies the routed semantics of a message.
type Kind string

const (
	KindPing      Kind = "ping"
	KindPong      Kind = "pong"
	KindEcho      Kind = "echo"
	KindBroadcast Kind = "broadcast"
	KindError     Kind = "error"
	KindUnknown   Kind = "unknown"
)

// DefaultMaxPayloadBytes caps the size of a single inbound frame.
const DefaultMaxPayloadBytes = 64 * 1024

// Envelope is the inbound wire shape. Data is opaque to the relay.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Reply is the outbound wire shape for relay-originated messages.
type Reply struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// KindOf maps an inbound wire type to a Kind. Anything unrecognized is
// KindUnknown; the dispatcher treats unknown types as echo requests.
func KindOf(wireType string) Kind {
	switch wireType {
	case "ping":
		return KindPing
	case "echo":
		return KindEcho
	case "broadcast":
		return KindBroadcast
	default:
		return KindUnknown
	}
}
