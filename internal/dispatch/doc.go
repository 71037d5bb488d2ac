// Package dispatch implements the per-connection inbound message loop.
//
// The dispatcher is the boundary between raw frames and routed semantics:
//   - ping      -> pong back to the sender only
//   - broadcast -> registry fan-out, sender excluded
//   - echo and unrecognized types -> echoed back to the sender
//   - malformed or oversized frames -> error reply, connection stays open
//
// A close frame or transport error ends the loop, unregisters the
// connection, and moves it toward Closed. One connection's failure never
// reaches another.
package dispatch
