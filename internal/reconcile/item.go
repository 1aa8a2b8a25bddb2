package reconcile

// Pair is one (key, content) element of the desired sequence.
// Keys must be unique within a single reconciliation pass.
type Pair[T any] struct {
	Key     string
	Content T
}

// Item is one committed keyed item. The reconciler creates an Item the first
// time its key appears and reuses the same *Item across later passes, so
// callers may address per-item state (sentinel markers, content bindings) by
// item identity.
type Item[T any] struct {
	// Key is the caller-supplied identity for this item.
	Key string

	// Content is the most recently diffed content for this item.
	// Updated by the reconciler on every pass in which the key survives.
	Content T
}

// Op identifies one kind of edit in a script.
type Op int

const (
	// OpInsert mounts a fresh item before the referenced anchor.
	OpInsert Op = iota + 1
	// OpMove relocates an existing item's full node range before the
	// referenced anchor.
	OpMove
	// OpRemove detaches an existing item and tears it down.
	OpRemove
	// OpUpdate rebinds an item's content in place. Never structural.
	OpUpdate
)

// String returns the lowercase op name for traces and errors.
func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpMove:
		return "move"
	case OpRemove:
		return "remove"
	case OpUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Edit is one operation of an edit script.
//
// Before is the placement reference for OpInsert and OpMove: the item whose
// sentinel anchor the moved/inserted range lands immediately before, or nil
// for the container's trailing anchor ("append at end"). Before always refers
// to an item whose position is already settled at the time this edit is
// applied, provided edits are applied in script order.
type Edit[T any] struct {
	Op      Op
	Item    *Item[T]
	Before  *Item[T]
	Content T
}

// Script is the ordered result of one reconciliation pass.
type Script[T any] struct {
	// Edits are applied strictly in order.
	Edits []Edit[T]

	// Items is the committed sequence after applying Edits, in order.
	// Reused items keep their old *Item identity.
	Items []*Item[T]
}

// Structural counts the Insert, Move, and Remove edits in the script.
// OpUpdate edits are excluded; they never change the sequence shape.
func (s *Script[T]) Structural() (inserts, moves, removes int) {
	for _, e := range s.Edits {
		switch e.Op {
		case OpInsert:
			inserts++
		case OpMove:
			moves++
		case OpRemove:
			removes++
		}
	}
	return inserts, moves, removes
}
