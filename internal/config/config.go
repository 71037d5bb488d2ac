package config

import "time"

// Config is the root configuration for a relay instance.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Hub       HubConfig       `yaml:"hub"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"` // "*" allows any origin
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// HubConfig holds connection and delivery settings.
type HubConfig struct {
	QueueSize        int           `yaml:"queue_size"`        // Per-connection outbound queue capacity
	MaxPayloadBytes  int64         `yaml:"max_payload_bytes"` // Inbound frame size cap
	CloseTimeout     time.Duration `yaml:"close_timeout"`     // Queue drain bound during close
	WriteTimeout     time.Duration `yaml:"write_timeout"`     // Per-frame write deadline
	PingInterval     time.Duration `yaml:"ping_interval"`     // Keepalive cadence
	ReadTimeout      time.Duration `yaml:"read_timeout"`      // Pong wait; must exceed ping_interval
	StrictInvariants bool          `yaml:"strict_invariants"` // Panic on registry invariant violations
}

// RateLimitConfig holds per-connection inbound throttling settings.
type RateLimitConfig struct {
	Burst          int           `yaml:"burst"`
	RefillInterval time.Duration `yaml:"refill_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
