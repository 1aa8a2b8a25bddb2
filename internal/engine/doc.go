// Package engine implements the component runtime: per-instance hook state
// addressed by call position, a priority-lane update scheduler bridged to a
// host backend, and keyed-list bindings that reconcile dynamic collections
// into edit scripts applied to the host tree.
//
// The engine is single-timeline. Every entry point (Mount, Unmount, the
// dispatch functions returned by hooks) funnels through the host backend's
// microtask and callback queues, so a backend that serializes its callbacks
// (internal/host.Deterministic, internal/host.Async) gives the engine all
// the mutual exclusion it needs.
//
// A frame proceeds in fixed phases: dirty bindings render, then the
// synchronous commit span applies mutation effects (tree edits) followed by
// layout effects, then passive effects run in a later background turn after
// at least one yield back to the host.
package engine
