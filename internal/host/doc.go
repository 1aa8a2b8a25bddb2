// Package host defines the scheduling primitives the rendering engine
// consumes from its host environment, plus two concrete backends.
//
// The engine never blocks on the host. Every primitive is continuation
// passing: work is handed to the host and the host invokes it when the
// host's own loop reaches it. This keeps the engine portable to hosts
// without coroutine primitives and makes test execution fully deterministic.
//
// Deterministic is the single-timeline pump used by tests and the CLI: all
// callbacks run on the caller's goroutine, in priority order, when Flush is
// called. Async is a goroutine-backed backend for embedding in a live
// process; it serializes all work on one worker goroutine so the engine's
// shared sets keep their single-writer guarantee.
package host
