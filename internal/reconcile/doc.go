// Package reconcile implements the keyed-sequence diff used when a dynamic
// collection of child items must be kept in sync with a source list.
//
// The algorithm is a four-pointer head/tail scan over the old and new
// sequences. Matching ends are reused in place, single rotations are resolved
// as O(1) moves, and only when no end matches does the diff fall back to a
// key->index map over the remaining windows. Expected cost is O(n); the map
// fallback is O(n) in the window size and terminates the pass.
//
// The package is pure: it produces an ordered edit script and never touches a
// live tree. Applying the script is the caller's job (see the engine's list
// binding), with one contract: each edit is applied in script order, and an
// Insert or Move places the item's entire contiguous node range immediately
// before the referenced item's sentinel anchor (or at the container's end when
// the reference is nil).
package reconcile
