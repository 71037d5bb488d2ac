package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrQueueFull = errors.New("outbound queue full")
	ErrNotOpen   = errors.New("connection not open")
)

// State is the lifecycle state of a Conn.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Stream is the duplex frame transport a Conn wraps. The transport adapter
// provides the implementation after it completes the upgrade handshake.
// A Stream has exactly one reader and one writer goroutine; Close must
// unblock a pending Read.
type Stream interface {
	// Read blocks until the next inbound frame or a transport error.
	Read() ([]byte, error)

	// Write sends one outbound frame.
	Write(data []byte) error

	// Ping sends a keepalive control frame.
	Ping() error

	// WriteClose sends a close control frame with the given reason.
	WriteClose(reason string) error

	// Close tears down the underlying transport.
	Close() error

	// RemoteAddr reports the peer address, for logging only.
	RemoteAddr() string
}

// Config holds per-connection tunables.
type Config struct {
	QueueSize    int           // Outbound queue capacity (messages)
	CloseTimeout time.Duration // Max time to drain the queue during close
	PingInterval time.Duration // Keepalive ping cadence for the writer
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		QueueSize:    256,
		CloseTimeout: 5 * time.Second,
		PingInterval: 30 * time.Second,
	}
}
