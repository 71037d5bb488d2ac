package message

import (
	"encoding/json"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		wireType string
		want     Kind
	}{
		{"ping", KindPing},
		{"echo", KindEcho},
		{"broadcast", KindBroadcast},
		{"pong", KindUnknown}, // pong is relay-originated only
		{"error", KindUnknown},
		{"subscribe", KindUnknown},
		{"", KindUnknown},
		{"PING", KindUnknown}, // wire types are case-sensitive
	}

	for _, tt := range tests {
		if got := KindOf(tt.wireType); got != tt.want {
			t.Errorf("KindOf(%q) = %v, want %v", tt.wireType, got, tt.want)
		}
	}
}

func TestEncodeShapes(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  string
	}{
		{"pong", EncodePong(), `{"type":"pong"}`},
		{"echo", EncodeEcho(json.RawMessage(`{"n":1}`)), `{"type":"echo","data":{"n":1}}`},
		{"echo without data", EncodeEcho(nil), `{"type":"echo"}`},
		{"broadcast", EncodeBroadcast(json.RawMessage(`"hi"`)), `{"type":"broadcast","data":"hi"}`},
		{"error", EncodeError("bad frame"), `{"type":"error","error":"bad frame"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.frame) != tt.want {
				t.Errorf("frame = %s, want %s", tt.frame, tt.want)
			}
		})
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	var env Envelope
	raw := `{"type":"broadcast","data":{"room":"lobby"}}`
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if env.Type != "broadcast" {
		t.Errorf("Type = %q, want %q", env.Type, "broadcast")
	}
	// Data passes through untouched.
	if string(env.Data) != `{"room":"lobby"}` {
		t.Errorf("Data = %s, want %s", env.Data, `{"room":"lobby"}`)
	}
}
