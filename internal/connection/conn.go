package connection

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Conn wraps one client's duplex stream. It owns the outbound queue and the
// lifecycle state; the registry holds the only long-lived reference.
type Conn struct {
	id     uuid.UUID
	addr   string
	stream Stream
	cfg    Config
	logger *slog.Logger

	out     chan []byte
	closing chan struct{} // closed on the Open -> Closing transition
	done    chan struct{} // closed once the Conn reaches Closed

	mu      sync.Mutex
	state   State
	started bool
	reason  string
}

// New creates a Conn in the Connecting state. The Conn becomes eligible for
// delivery once Open is called (normally by the registry at registration).
func New(stream Stream, cfg Config, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = DefaultConfig().CloseTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultConfig().PingInterval
	}

	id := uuid.New()
	return &Conn{
		id:      id,
		addr:    stream.RemoteAddr(),
		stream:  stream,
		cfg:     cfg,
		logger:  logger.With("conn_id", id, "remote", stream.RemoteAddr()),
		out:     make(chan []byte, cfg.QueueSize),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// ID returns the identifier assigned at creation, stable for the lifetime
// of the connection.
func (c *Conn) ID() uuid.UUID {
	return c.id
}

// RemoteAddr returns the peer address captured at creation.
func (c *Conn) RemoteAddr() string {
	return c.addr
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed once the connection reaches Closed and its stream is
// released.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Open transitions Connecting -> Open and starts the writer. A Conn that has
// left Connecting can never be opened; a reconnect is always a new Conn.
func (c *Conn) Open() error {
	c.mu.Lock()
	if c.state != StateConnecting {
		c.mu.Unlock()
		return ErrNotOpen
	}
	c.state = StateOpen
	c.started = true
	c.mu.Unlock()

	go c.writeLoop()
	return nil
}

// Read blocks until the next inbound frame or a transport error. Closing the
// connection unblocks a pending Read via the stream teardown.
func (c *Conn) Read() ([]byte, error) {
	return c.stream.Read()
}

// Send enqueues one outbound frame. It never blocks: a full queue returns
// ErrQueueFull and transitions the connection toward Closing, per the
// drop-the-connection backpressure policy.
func (c *Conn) Send(payload []byte) error {
	c.mu.Lock()
	if c.state != StateOpen {
		c.mu.Unlock()
		return ErrNotOpen
	}
	c.mu.Unlock()

	select {
	case c.out <- payload:
		return nil
	default:
		c.logger.Warn("outbound queue overflow, dropping connection",
			"capacity", c.cfg.QueueSize,
		)
		c.Close("outbound queue overflow")
		return ErrQueueFull
	}
}

// Close requests graceful shutdown. It is idempotent: calls after the first
// are no-ops. The writer drains the outbound queue or gives up after the
// close timeout, then releases the stream.
func (c *Conn) Close(reason string) {
	c.mu.Lock()
	if c.state == StateClosing || c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	started := c.started
	c.state = StateClosing
	c.started = true
	c.reason = reason
	c.mu.Unlock()

	close(c.closing)

	// No writer was ever started; finish the teardown inline.
	if !started {
		c.finalize()
	}
}

// writeLoop drains the outbound queue in FIFO order and keeps the transport
// alive with periodic pings. It is the only goroutine that writes to the
// stream.
func (c *Conn) writeLoop() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	defer c.finalize()

	for {
		select {
		case <-c.closing:
			c.drain()
			return

		case msg := <-c.out:
			if err := c.stream.Write(msg); err != nil {
				// Fatal transport error: skip the drain, go straight
				// to Closed.
				c.logger.Debug("write failed", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.stream.Ping(); err != nil {
				c.logger.Debug("ping failed", "error", err)
				return
			}
		}
	}
}

// drain flushes messages queued before the close was requested, bounded by
// the close timeout, then sends the close frame.
func (c *Conn) drain() {
	deadline := time.NewTimer(c.cfg.CloseTimeout)
	defer deadline.Stop()

	for {
		select {
		case msg := <-c.out:
			if err := c.stream.Write(msg); err != nil {
				return
			}
		case <-deadline.C:
			c.logger.Debug("close timeout reached before queue drained")
			return
		default:
			if err := c.stream.WriteClose(c.closeReason()); err != nil {
				c.logger.Debug("close frame failed", "error", err)
			}
			return
		}
	}
}

// finalize completes the transition to Closed and releases the stream,
// unblocking any pending Read.
func (c *Conn) finalize() {
	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()

	if err := c.stream.Close(); err != nil {
		c.logger.Debug("stream close failed", "error", err)
	}
	close(c.done)
}

func (c *Conn) closeReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}
