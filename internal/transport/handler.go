package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rgarner/sockrelay/internal/connection"
	"github.com/rgarner/sockrelay/internal/dispatch"
	"github.com/rgarner/sockrelay/internal/registry"
)

// Config holds transport adapter tunables.
type Config struct {
	AllowedOrigins  []string
	MaxPayloadBytes int64
	ReadTimeout     time.Duration // Pong wait; must exceed the ping interval
	WriteTimeout    time.Duration
	Conn            connection.Config
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxPayloadBytes: 64 * 1024,
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		Conn:            connection.DefaultConfig(),
	}
}

// Handler upgrades HTTP requests and hands the resulting streams to the
// registry and dispatcher.
type Handler struct {
	cfg        Config
	reg        registry.Registry
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

// NewHandler creates the WebSocket upgrade handler.
func NewHandler(cfg Config, reg registry.Registry, dispatcher *dispatch.Dispatcher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPayloadBytes < 1 {
		cfg.MaxPayloadBytes = DefaultConfig().MaxPayloadBytes
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultConfig().ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}

	origins := newOriginPolicy(cfg.AllowedOrigins, logger)

	return &Handler{
		cfg:        cfg,
		reg:        reg,
		dispatcher: dispatcher,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
	}
}

// ServeHTTP completes the upgrade handshake, registers the connection, and
// runs its dispatch loop until the peer goes away.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "websocket endpoint only accepts GET", http.StatusMethodNotAllowed)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	stream := newStream(ws, h.cfg.MaxPayloadBytes, h.cfg.ReadTimeout, h.cfg.WriteTimeout)
	conn := connection.New(stream, h.cfg.Conn, h.logger)

	h.reg.Register(conn)

	// The handler goroutine is the connection's reader.
	h.dispatcher.Serve(conn)
}
