package config

import (
	"errors"
	"fmt"
)

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}

	if c.Hub.QueueSize < 1 {
		return errors.New("hub.queue_size must be >= 1")
	}
	if c.Hub.MaxPayloadBytes < 1 {
		return errors.New("hub.max_payload_bytes must be >= 1")
	}
	if c.Hub.CloseTimeout <= 0 {
		return errors.New("hub.close_timeout must be positive")
	}
	if c.Hub.WriteTimeout <= 0 {
		return errors.New("hub.write_timeout must be positive")
	}
	if c.Hub.PingInterval <= 0 {
		return errors.New("hub.ping_interval must be positive")
	}
	if c.Hub.ReadTimeout <= c.Hub.PingInterval {
		return fmt.Errorf("hub.read_timeout (%s) must exceed hub.ping_interval (%s)",
			c.Hub.ReadTimeout, c.Hub.PingInterval)
	}

	if c.RateLimit.Burst < 1 {
		return errors.New("rate_limit.burst must be >= 1")
	}
	if c.RateLimit.RefillInterval <= 0 {
		return errors.New("rate_limit.refill_interval must be positive")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}

	return nil
}
