package message

import "encoding/json"

// The encode helpers produce fully-formed outbound frames before they reach
// any queue, so a receiver can never observe a partially-constructed message.

// EncodePong builds a pong reply frame.
func EncodePong() []byte {
	return encode(Reply{Type: string(KindPong)})
}

// EncodeEcho builds an echo reply frame carrying the original payload.
func EncodeEcho(data json.RawMessage) []byte {
	return encode(Reply{Type: string(KindEcho), Data: data})
}

// EncodeBroadcast builds a broadcast frame carrying the sender's payload.
func EncodeBroadcast(data json.RawMessage) []byte {
	return encode(Reply{Type: string(KindBroadcast), Data: data})
}

// EncodeError builds an error reply frame describing a recoverable failure.
func EncodeError(reason string) []byte {
	return encode(Reply{Type: string(KindError), Error: reason})
}

// encode marshals a reply. Reply holds only strings and raw JSON that the
// parser has already validated, so the error path is unreachable.
func encode(r Reply) []byte {
	data, _ := json.Marshal(r)
	return data
}
