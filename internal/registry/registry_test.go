package registry

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rgarner/sockrelay/internal/connection"
)

// fakeStream is an in-memory connection.Stream so tests can register real
// Conns without a network.
type fakeStream struct {
	mu        sync.Mutex
	writes    [][]byte
	closed    bool
	writeGate chan struct{} // when non-nil, Write blocks until it closes

	done chan struct{}
}

func newFakeStream() *fakeStream {
	return &fakeStream{done: make(chan struct{})}
}

func (f *fakeStream) Read() ([]byte, error) {
	<-f.done
	return nil, io.EOF
}

func (f *fakeStream) Write(data []byte) error {
	f.mu.Lock()
	gate := f.writeGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, append([]byte(nil), data...))
	return nil
}

func (f *fakeStream) Ping() error { return nil }

func (f *fakeStream) WriteClose(string) error { return nil }

func (f *fakeStream) RemoteAddr() string { return "fake:1234" }

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.done)
	}
	return nil
}

func (f *fakeStream) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

// newTestConn returns a Conn backed by a fresh fake stream.
func newTestConn(queueSize int) (*connection.Conn, *fakeStream) {
	stream := newFakeStream()
	cfg := connection.DefaultConfig()
	cfg.QueueSize = queueSize
	cfg.CloseTimeout = time.Second
	return connection.New(stream, cfg, nil), stream
}

// settle closes the connection and waits for its writer to drain, so the
// fake stream's writes reflect everything that was enqueued.
func settle(t *testing.T, conn *connection.Conn) {
	t.Helper()
	conn.Close("test settle")
	select {
	case <-conn.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("connection did not close in time")
	}
}

func TestRegistry_RegisterAndStats(t *testing.T) {
	reg := New(Config{}, nil)

	conn, _ := newTestConn(8)
	id := reg.Register(conn)

	if id != conn.ID() {
		t.Errorf("Register returned %s, want %s", id, conn.ID())
	}
	if conn.State() != connection.StateOpen {
		t.Errorf("State() = %v, want %v", conn.State(), connection.StateOpen)
	}

	stats := reg.Stats()
	if !stats.Up {
		t.Error("expected Up")
	}
	if stats.Connections != 1 {
		t.Errorf("Connections = %d, want 1", stats.Connections)
	}

	reg.Unregister(id)
	if got := reg.Stats().Connections; got != 0 {
		t.Errorf("Connections after unregister = %d, want 0", got)
	}
	settle(t, conn)
}

func TestRegistry_UnregisterTwice(t *testing.T) {
	reg := New(Config{}, nil)

	conn, _ := newTestConn(8)
	id := reg.Register(conn)

	// Dispatcher-driven and timeout-driven close paths may both call
	// Unregister; the second call must be a no-op.
	reg.Unregister(id)
	reg.Unregister(id)

	if got := reg.Stats().Connections; got != 0 {
		t.Errorf("Connections = %d, want 0", got)
	}
	settle(t, conn)
}

func TestRegistry_UnregisterUnknown(t *testing.T) {
	reg := New(Config{}, nil)
	reg.Unregister(uuid.New()) // must not panic or error
}

func TestRegistry_BroadcastExcludesSender(t *testing.T) {
	reg := New(Config{}, nil)

	connA, streamA := newTestConn(8)
	connB, streamB := newTestConn(8)
	connC, streamC := newTestConn(8)
	idA := reg.Register(connA)
	reg.Register(connB)
	reg.Register(connC)

	count := reg.Broadcast([]byte(`{"type":"broadcast","data":"hi"}`), idA)
	if count != 2 {
		t.Errorf("Broadcast count = %d, want 2", count)
	}

	settle(t, connA)
	settle(t, connB)
	settle(t, connC)

	if got := streamA.writeCount(); got != 0 {
		t.Errorf("sender received %d messages, want 0", got)
	}
	if got := streamB.writeCount(); got != 1 {
		t.Errorf("B received %d messages, want 1", got)
	}
	if got := streamC.writeCount(); got != 1 {
		t.Errorf("C received %d messages, want 1", got)
	}
}

func TestRegistry_BroadcastNoExclusion(t *testing.T) {
	reg := New(Config{}, nil)

	connA, _ := newTestConn(8)
	connB, _ := newTestConn(8)
	reg.Register(connA)
	reg.Register(connB)

	if count := reg.Broadcast([]byte("x"), uuid.Nil); count != 2 {
		t.Errorf("Broadcast count = %d, want 2", count)
	}

	settle(t, connA)
	settle(t, connB)
}

func TestRegistry_SlowReceiverIsolated(t *testing.T) {
	reg := New(Config{}, nil)

	// The stalled connection has a tiny queue and a writer that never
	// completes a write.
	stalled, stalledStream := newTestConn(1)
	gate := make(chan struct{})
	stalledStream.writeGate = gate

	healthy, healthyStream := newTestConn(64)

	stalledID := reg.Register(stalled)
	reg.Register(healthy)

	// Flood until the stalled connection overflows and is evicted.
	const floods = 10
	for i := 0; i < floods; i++ {
		reg.Broadcast([]byte("flood"), uuid.Nil)
	}

	if got := reg.Stats().Connections; got != 1 {
		t.Errorf("Connections after flood = %d, want 1 (stalled evicted)", got)
	}
	if err := reg.Unicast(stalledID, []byte("x")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Unicast to evicted = %v, want ErrNotFound", err)
	}

	state := stalled.State()
	if state != connection.StateClosing && state != connection.StateClosed {
		t.Errorf("stalled State() = %v, want Closing or Closed", state)
	}

	// Every flood message reached the healthy connection.
	settle(t, healthy)
	if got := healthyStream.writeCount(); got != floods {
		t.Errorf("healthy received %d messages, want %d", got, floods)
	}

	close(gate)
	settle(t, stalled)
}

func TestRegistry_Unicast(t *testing.T) {
	reg := New(Config{}, nil)

	conn, stream := newTestConn(8)
	id := reg.Register(conn)

	if err := reg.Unicast(id, []byte("hello")); err != nil {
		t.Fatalf("Unicast failed: %v", err)
	}

	settle(t, conn)
	if got := stream.writeCount(); got != 1 {
		t.Errorf("received %d messages, want 1", got)
	}
}

func TestRegistry_UnicastNotFound(t *testing.T) {
	reg := New(Config{}, nil)

	// The target may close between message arrival and dispatch; this is
	// expected, not exceptional.
	if err := reg.Unicast(uuid.New(), []byte("x")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Unicast = %v, want ErrNotFound", err)
	}
}

func TestRegistry_DuplicateIDSelfHeals(t *testing.T) {
	reg := New(Config{}, nil)

	conn, _ := newTestConn(8)
	reg.Register(conn)

	// Registering the same Conn again presents a duplicate id. In
	// production mode the stale entry is evicted and closed rather than
	// crashing the process; since the "new" conn here is the same object,
	// its re-open fails and the registry ends up empty but consistent.
	reg.Register(conn)

	if got := reg.Stats().Connections; got != 0 {
		t.Errorf("Connections = %d, want 0", got)
	}
	select {
	case <-conn.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("evicted connection did not close")
	}
}

func TestRegistry_DuplicateIDStrictPanics(t *testing.T) {
	reg := New(Config{StrictInvariants: true}, nil)

	conn, _ := newTestConn(8)
	reg.Register(conn)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate id in strict mode")
		}
		settle(t, conn)
	}()
	reg.Register(conn)
}

func TestRegistry_Shutdown(t *testing.T) {
	reg := New(Config{}, nil)

	conns := make([]*connection.Conn, 0, 3)
	for i := 0; i < 3; i++ {
		conn, _ := newTestConn(8)
		reg.Register(conn)
		conns = append(conns, conn)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := reg.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	for i, conn := range conns {
		if got := conn.State(); got != connection.StateClosed {
			t.Errorf("conn[%d] State() = %v, want %v", i, got, connection.StateClosed)
		}
	}

	stats := reg.Stats()
	if stats.Up {
		t.Error("expected Up = false after shutdown")
	}
	if stats.Connections != 0 {
		t.Errorf("Connections = %d, want 0", stats.Connections)
	}

	// Registrations after shutdown are refused and the conn is closed.
	late, _ := newTestConn(8)
	reg.Register(late)
	if got := reg.Stats().Connections; got != 0 {
		t.Errorf("Connections after late register = %d, want 0", got)
	}
	select {
	case <-late.Done():
	case <-time.After(2 * time.Second):
		t.Error("late connection was not closed")
	}
}
