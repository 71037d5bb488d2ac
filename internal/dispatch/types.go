package dispatch

import (
	"time"

	"github.com/rgarner/sockrelay/internal/message"
)

// Config holds dispatcher tunables.
type Config struct {
	MaxPayloadBytes    int           // Inbound frame size cap
	RateLimitBurst     int           // Token bucket capacity per connection
	RateLimitRefill    time.Duration // Interval to refill a full burst
	DisableRateLimiter bool          // Tests only
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxPayloadBytes: message.DefaultMaxPayloadBytes,
		RateLimitBurst:  20,
		RateLimitRefill: time.Second,
	}
}

// Stats contains dispatcher counters since process start.
type Stats struct {
	Received    int64
	Routed      int64
	ParseErrors int64
	Unknown     int64
	RateLimited int64
}
