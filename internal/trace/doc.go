// Package trace provides SQLite-backed durable storage for engine commit
// traces.
//
// The store implements an append-only log of engine events, keyed by run:
// scheduling decisions, render outcomes, reconciler edits, and effect
// commits, in logical-clock order.
//
// # Critical Patterns
//
// Logical time only: all ordering uses the engine's seq counter, never
// timestamps, so a trace replays identically regardless of wall time.
//
// Deterministic reads: every query orders by seq ASC, so two reads of the
// same run return byte-identical event sequences.
//
// Canonical serialization: event payloads persist as canonical JSON
// (NFC-normalized strings, sorted keys, no HTML escaping), so traces diff
// and hash stably across platforms.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package trace
