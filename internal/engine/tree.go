package engine

// Tree is the minimal mutation surface the engine needs from a host tree.
// Node handles are opaque; the engine only threads them back into the same
// Tree. The in-memory mock (internal/vtree) satisfies this interface; a real
// host document adapter would too.
type Tree interface {
	// CreateMarker creates a detached inert marker node. Markers are the
	// sentinel anchors of keyed items and binding range boundaries.
	CreateMarker(label string) any

	// CreateText creates a detached text node.
	CreateText(text string) any

	// SetText replaces a text node's content in place.
	SetText(node any, text string)

	// InsertBefore attaches node under parent immediately before ref;
	// nil ref appends at the end of parent.
	InsertBefore(parent, node, ref any)

	// Remove detaches node from its parent.
	Remove(node any)

	// MoveRange atomically relocates the contiguous sibling range
	// [start, end] to immediately before ref (nil = end of parent).
	MoveRange(parent, start, end, ref any)
}

// Part addresses one mount point: content lives in Container, immediately
// before Anchor. A nil Anchor means content is appended at Container's end.
type Part struct {
	Tree      Tree
	Container any
	Anchor    any
}

// insert attaches node at this part's position.
func (p Part) insert(node any) {
	p.Tree.InsertBefore(p.Container, node, p.Anchor)
}

// withAnchor returns a part at the same container with a different anchor.
func (p Part) withAnchor(anchor any) Part {
	return Part{Tree: p.Tree, Container: p.Container, Anchor: anchor}
}
