package dispatch

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rgarner/sockrelay/internal/connection"
	"github.com/rgarner/sockrelay/internal/message"
	"github.com/rgarner/sockrelay/internal/registry"
)

// Dispatcher routes inbound frames for every connection. It is safe for
// concurrent use; each connection runs its own Serve loop.
type Dispatcher struct {
	cfg    Config
	reg    registry.Registry
	logger *slog.Logger

	mu          sync.Mutex
	received    int64
	routed      int64
	parseErrors int64
	unknown     int64
	rateLimited int64
}

// New creates a Dispatcher.
func New(cfg Config, reg registry.Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPayloadBytes < 1 {
		cfg.MaxPayloadBytes = DefaultConfig().MaxPayloadBytes
	}

	return &Dispatcher{
		cfg:    cfg,
		reg:    reg,
		logger: logger,
	}
}

// Serve runs the inbound loop for one connection until its stream ends.
// On return the connection is unregistered and moving toward Closed.
func (d *Dispatcher) Serve(conn *connection.Conn) {
	id := conn.ID()
	lim := newLimiter(d.cfg.RateLimitBurst, d.cfg.RateLimitRefill)

	defer func() {
		d.reg.Unregister(id)
		conn.Close("read loop ended")
	}()

	for {
		data, err := conn.Read()
		if err != nil {
			d.logger.Debug("read loop ended", "conn_id", id, "error", err)
			return
		}

		d.mu.Lock()
		d.received++
		d.mu.Unlock()

		if !d.cfg.DisableRateLimiter && !lim.allow() {
			d.mu.Lock()
			d.rateLimited++
			d.mu.Unlock()
			d.logger.Debug("rate limit exceeded, dropping frame", "conn_id", id)
			continue
		}

		d.route(conn, data)
	}
}

// Stats returns a copy of the dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Stats{
		Received:    d.received,
		Routed:      d.routed,
		ParseErrors: d.parseErrors,
		Unknown:     d.unknown,
		RateLimited: d.rateLimited,
	}
}

// route parses one frame and routes it by kind. Malformed input is
// recoverable: the sender gets an error reply and stays connected.
func (d *Dispatcher) route(conn *connection.Conn, data []byte) {
	if len(data) > d.cfg.MaxPayloadBytes {
		d.mu.Lock()
		d.parseErrors++
		d.mu.Unlock()
		d.reply(conn, message.EncodeError(
			fmt.Sprintf("payload exceeds %d bytes", d.cfg.MaxPayloadBytes),
		))
		return
	}

	var env message.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		d.mu.Lock()
		d.parseErrors++
		d.mu.Unlock()
		d.reply(conn, message.EncodeError("malformed message: expected a JSON object with a type field"))
		return
	}

	switch message.KindOf(env.Type) {
	case message.KindPing:
		d.reply(conn, message.EncodePong())

	case message.KindBroadcast:
		d.reg.Broadcast(message.EncodeBroadcast(env.Data), conn.ID())

	case message.KindEcho:
		d.reply(conn, message.EncodeEcho(env.Data))

	default:
		// Unrecognized types keep the historical echo fallback; the
		// counter exists so a stricter policy can be argued from data.
		d.mu.Lock()
		d.unknown++
		d.mu.Unlock()
		d.reply(conn, message.EncodeEcho(env.Data))
	}

	d.mu.Lock()
	d.routed++
	d.mu.Unlock()
}

// reply unicasts to the serving connection. A full queue has already moved
// the connection toward Closing; drop it from the registry and move on.
func (d *Dispatcher) reply(conn *connection.Conn, payload []byte) {
	if err := conn.Send(payload); err != nil {
		d.logger.Warn("reply failed", "conn_id", conn.ID(), "error", err)
		d.reg.Unregister(conn.ID())
	}
}
