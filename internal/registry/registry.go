package registry

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/rgarner/sockrelay/internal/connection"
)

// Errors
var (
	ErrNotFound = errors.New("connection not registered")
)

// Registry tracks live connections and fans messages out to them.
type Registry interface {
	// Register opens the connection, adds it to the live set, and returns
	// its id.
	Register(conn *connection.Conn) uuid.UUID

	// Unregister removes the connection if present. Absent ids are a
	// no-op: dispatcher-driven and timeout-driven close paths may race.
	Unregister(id uuid.UUID)

	// Broadcast enqueues payload to every registered connection except
	// exclude (uuid.Nil excludes nobody) and returns the number of
	// connections delivery was attempted to. Per-target queue overflow is
	// isolated; the offender is evicted and the fan-out continues.
	Broadcast(payload []byte, exclude uuid.UUID) int

	// Unicast enqueues payload to exactly one connection. ErrNotFound is
	// expected when the target closed between arrival and dispatch.
	Unicast(id uuid.UUID, payload []byte) error

	// Stats returns a snapshot for the health endpoint.
	Stats() Stats

	// Shutdown closes every connection and waits for their writers to
	// finish, bounded by ctx.
	Shutdown(ctx context.Context) error
}

// Stats is the synchronous health snapshot exposed to the HTTP layer.
type Stats struct {
	Up          bool `json:"up"`
	Connections int  `json:"connections"`
}

// Config holds registry tunables.
type Config struct {
	// StrictInvariants makes invariant violations (duplicate ids) panic
	// instead of self-healing. Meant for tests and debug deployments.
	StrictInvariants bool
}
