// Package transport adapts HTTP upgrade requests into connection streams.
//
// The adapter:
//   - Upgrades GET requests to WebSocket, enforcing an origin allowlist
//   - Wraps the socket in a connection.Stream with read/write deadlines
//   - Registers the connection and runs its dispatch loop to completion
package transport
