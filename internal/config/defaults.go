package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultQueueSize       = 256
	DefaultMaxPayloadBytes = 64 * 1024
	DefaultCloseTimeout    = 5 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultPingInterval    = 30 * time.Second
	DefaultReadTimeout     = 60 * time.Second
	DefaultRateLimitBurst  = 20
	DefaultRateLimitRefill = time.Second
	DefaultLogLevel        = "info"
)

func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Hub defaults
	if c.Hub.QueueSize == 0 {
		c.Hub.QueueSize = DefaultQueueSize
	}
	if c.Hub.MaxPayloadBytes == 0 {
		c.Hub.MaxPayloadBytes = DefaultMaxPayloadBytes
	}
	if c.Hub.CloseTimeout == 0 {
		c.Hub.CloseTimeout = DefaultCloseTimeout
	}
	if c.Hub.WriteTimeout == 0 {
		c.Hub.WriteTimeout = DefaultWriteTimeout
	}
	if c.Hub.PingInterval == 0 {
		c.Hub.PingInterval = DefaultPingInterval
	}
	if c.Hub.ReadTimeout == 0 {
		c.Hub.ReadTimeout = DefaultReadTimeout
	}

	// Rate limit defaults
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = DefaultRateLimitBurst
	}
	if c.RateLimit.RefillInterval == 0 {
		c.RateLimit.RefillInterval = DefaultRateLimitRefill
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
