package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/rgarner/sockrelay/internal/connection"
)

// registryImpl implements the Registry interface.
type registryImpl struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.RWMutex
	conns    map[uuid.UUID]*connection.Conn
	shutdown bool
}

// New creates an empty registry.
func New(cfg Config, logger *slog.Logger) Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &registryImpl{
		cfg:    cfg,
		logger: logger,
		conns:  make(map[uuid.UUID]*connection.Conn),
	}
}

// Register opens the connection and adds it to the live set.
func (r *registryImpl) Register(conn *connection.Conn) uuid.UUID {
	id := conn.ID()

	r.mu.Lock()
	if r.shutdown {
		r.mu.Unlock()
		conn.Close("registry shut down")
		return id
	}

	// Duplicate ids cannot happen by construction (ids are random UUIDs
	// assigned once). If one shows up anyway the map entry is stale:
	// evict it and carry on, or panic under strict invariants.
	if stale, ok := r.conns[id]; ok {
		r.mu.Unlock()
		if r.cfg.StrictInvariants {
			panic(fmt.Sprintf("registry: duplicate connection id %s", id))
		}
		r.logger.Error("duplicate connection id, evicting stale entry", "conn_id", id)
		stale.Close("evicted: duplicate id")
		r.mu.Lock()
	}

	r.conns[id] = conn
	total := len(r.conns)
	r.mu.Unlock()

	if err := conn.Open(); err != nil {
		// The connection died before registration completed.
		r.Unregister(id)
		conn.Close("failed to open")
		return id
	}

	r.logger.Info("connection registered",
		"conn_id", id,
		"remote", conn.RemoteAddr(),
		"total", total,
	)
	return id
}

// Unregister removes the connection if present.
func (r *registryImpl) Unregister(id uuid.UUID) {
	r.mu.Lock()
	_, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
	}
	total := len(r.conns)
	r.mu.Unlock()

	if ok {
		r.logger.Info("connection unregistered", "conn_id", id, "total", total)
	}
}

// Broadcast fans payload out to every registered connection except exclude.
func (r *registryImpl) Broadcast(payload []byte, exclude uuid.UUID) int {
	targets := r.snapshot(exclude)

	var failed []uuid.UUID
	for _, conn := range targets {
		if err := conn.Send(payload); err != nil {
			// Send already moved the offender toward Closing; delivery
			// to the remaining targets continues regardless.
			r.logger.Warn("broadcast delivery failed, evicting",
				"conn_id", conn.ID(),
				"error", err,
			)
			failed = append(failed, conn.ID())
		}
	}

	for _, id := range failed {
		r.Unregister(id)
	}

	return len(targets)
}

// Unicast delivers payload to exactly one connection.
func (r *registryImpl) Unicast(id uuid.UUID, payload []byte) error {
	r.mu.RLock()
	conn, ok := r.conns[id]
	r.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}

	if err := conn.Send(payload); err != nil {
		if errors.Is(err, connection.ErrQueueFull) {
			r.Unregister(id)
		}
		return err
	}
	return nil
}

// Stats returns the current health snapshot.
func (r *registryImpl) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Stats{
		Up:          !r.shutdown,
		Connections: len(r.conns),
	}
}

// Shutdown closes all connections and waits for their writers, bounded by
// ctx. No reader or writer goroutine is left permanently blocked.
func (r *registryImpl) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.shutdown = true
	conns := make([]*connection.Conn, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	r.conns = make(map[uuid.UUID]*connection.Conn)
	r.mu.Unlock()

	r.logger.Info("registry shutting down", "connections", len(conns))

	for _, conn := range conns {
		conn.Close("server shutting down")
	}

	for _, conn := range conns {
		select {
		case <-conn.Done():
		case <-ctx.Done():
			r.logger.Warn("shutdown timeout, some writers may still be draining")
			return ctx.Err()
		}
	}

	r.logger.Info("registry stopped")
	return nil
}

// snapshot copies the current targets under the read lock so the fan-out
// itself runs without holding it. Connections registered or removed during
// a broadcast in progress may or may not receive that message.
func (r *registryImpl) snapshot(exclude uuid.UUID) []*connection.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	targets := make([]*connection.Conn, 0, len(r.conns))
	for id, conn := range r.conns {
		if id == exclude {
			continue
		}
		targets = append(targets, conn)
	}
	return targets
}
