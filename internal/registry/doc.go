// Package registry implements the live-connection registry.
//
// The registry is the single source of truth for "who is currently
// connected" and the only structure shared across connection goroutines:
//   - Register/Unregister mutate a mutex-guarded id -> Conn map
//   - Broadcast fans out to a call-time snapshot of the map
//   - A slow receiver (full queue) is evicted without delaying the others
//   - Registry operations never touch network I/O; they only enqueue
package registry
