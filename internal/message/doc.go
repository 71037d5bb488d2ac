// Package message defines the wire message types shared across the relay.
//
// Wire shape (text frames, JSON):
//   - inbound:  {"type": "<kind>", "data": <optional payload>}
//   - outbound: {"type": "<kind>", "data": <optional payload>, "error": "<optional>"}
//
// Conventions:
//   - Unrecognized inbound types fall back to echo semantics
//   - Payloads are opaque; the relay never inspects "data"
package message
