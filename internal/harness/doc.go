// Package harness provides a conformance testing framework for the
// rendering engine.
//
// Scenarios are YAML files that mount one of a small set of built-in
// components onto the in-memory tree, drive it through dispatch and update
// steps on the deterministic backend, and assert on the resulting tree and
// commit trace. Every scenario runs with a deterministic token generator so
// traces are byte-identical across runs, which makes golden trace files and
// store-level replay verification possible.
//
// The harness executes the real engine end to end: state dispatches go
// through the hook API, updates flow through the priority-lane scheduler,
// and keyed lists are reconciled into edit scripts applied to the tree.
// Nothing is manufactured from the scenario's expectations.
package harness
