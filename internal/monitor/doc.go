// Package monitor implements the periodic stats reporter.
//
// The reporter:
//   - Samples registry and dispatcher counters on a fixed interval
//   - Logs totals plus per-interval deltas for rate estimation
//   - Shuts down cleanly when the process drains
package monitor
