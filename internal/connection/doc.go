// Package connection implements the per-client connection state machine.
//
// Each Conn:
//   - Wraps one duplex frame stream produced by the transport adapter
//   - Owns a bounded FIFO outbound queue drained by a dedicated writer
//   - Walks Connecting -> Open -> Closing -> Closed, never re-entering Open
//   - Drops the connection instead of buffering unbounded when the queue fills
package connection
