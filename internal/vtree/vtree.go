// Package vtree is an in-memory mock of a host document tree.
//
// The rendering engine addresses the tree through its own Tree interface
// with opaque node handles; Document satisfies that interface structurally.
// Misuse (foreign handles, detached references, ranges that are not
// contiguous siblings) is a programming error and panics.
package vtree

import (
	"fmt"
	"strings"
)

// Kind identifies a node variant.
type Kind int

const (
	// KindElement is a named container node.
	KindElement Kind = iota + 1
	// KindText is a leaf holding text content.
	KindText
	// KindMarker is an inert labeled marker, used as a sentinel anchor.
	KindMarker
)

// Node is one node of the mock tree.
type Node struct {
	kind     Kind
	tag      string // element tag, or text/marker payload
	parent   *Node
	children []*Node
}

// Kind returns the node variant.
func (n *Node) Kind() Kind { return n.kind }

// Tag returns the element tag, text content, or marker label.
func (n *Node) Tag() string { return n.tag }

// Parent returns the node's parent, or nil when detached.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's children in order.
func (n *Node) Children() []*Node { return n.children }

// Document owns one mock tree rooted at a synthetic container element.
type Document struct {
	root *Node
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{root: &Node{kind: KindElement, tag: "root"}}
}

// Root returns the document's container element.
func (d *Document) Root() *Node { return d.root }

// NewElement creates a detached element node.
func (d *Document) NewElement(tag string) *Node {
	return &Node{kind: KindElement, tag: tag}
}

// CreateText creates a detached text node. The handle is opaque to the
// engine.
func (d *Document) CreateText(text string) any {
	return &Node{kind: KindText, tag: text}
}

// CreateMarker creates a detached marker node.
func (d *Document) CreateMarker(label string) any {
	return &Node{kind: KindMarker, tag: label}
}

// SetText replaces a text node's content.
func (d *Document) SetText(handle any, text string) {
	n := d.node(handle)
	if n.kind != KindText {
		panic(fmt.Sprintf("vtree: SetText on %v node", n.kind))
	}
	n.tag = text
}

// InsertBefore attaches node under parent, immediately before ref. A nil ref
// appends at the end of parent. The node must be detached.
func (d *Document) InsertBefore(parent, handle, ref any) {
	p := d.node(parent)
	n := d.node(handle)
	if n.parent != nil {
		panic("vtree: InsertBefore of attached node")
	}
	at := len(p.children)
	if ref != nil {
		at = p.indexOf(d.node(ref))
	}
	p.children = append(p.children, nil)
	copy(p.children[at+1:], p.children[at:])
	p.children[at] = n
	n.parent = p
}

// Remove detaches node from its parent.
func (d *Document) Remove(handle any) {
	n := d.node(handle)
	if n.parent == nil {
		return
	}
	p := n.parent
	at := p.indexOf(n)
	p.children = append(p.children[:at], p.children[at+1:]...)
	n.parent = nil
}

// MoveRange relocates the contiguous sibling range [start, end] of parent to
// immediately before ref (nil ref = end of parent), preserving internal
// order. The whole range moves in one step; ref must not lie inside it.
func (d *Document) MoveRange(parent, start, end, ref any) {
	p := d.node(parent)
	from := p.indexOf(d.node(start))
	to := p.indexOf(d.node(end))
	if to < from {
		panic("vtree: MoveRange end precedes start")
	}

	segment := make([]*Node, to-from+1)
	copy(segment, p.children[from:to+1])

	var refNode *Node
	if ref != nil {
		refNode = d.node(ref)
		if at := p.indexOf(refNode); at >= from && at <= to {
			panic("vtree: MoveRange reference inside moved range")
		}
	}

	reduced := make([]*Node, 0, len(p.children)-len(segment))
	reduced = append(reduced, p.children[:from]...)
	reduced = append(reduced, p.children[to+1:]...)

	at := len(reduced)
	if refNode != nil {
		at = -1
		for i, c := range reduced {
			if c == refNode {
				at = i
				break
			}
		}
		if at < 0 {
			panic("vtree: MoveRange reference is not a sibling")
		}
	}

	out := make([]*Node, 0, len(reduced)+len(segment))
	out = append(out, reduced[:at]...)
	out = append(out, segment...)
	out = append(out, reduced[at:]...)
	p.children = out
}

// Snapshot renders the whole tree in a stable single-line form:
// elements as <tag>...</tag>, text as quoted strings, markers as comments.
func (d *Document) Snapshot() string {
	var b strings.Builder
	for _, c := range d.root.children {
		writeNode(&b, c)
	}
	return b.String()
}

// Text returns the concatenated text content of the tree, ignoring markers.
func (d *Document) Text() string {
	var b strings.Builder
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.kind == KindText {
			b.WriteString(n.tag)
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(d.root)
	return b.String()
}

func writeNode(b *strings.Builder, n *Node) {
	switch n.kind {
	case KindElement:
		fmt.Fprintf(b, "<%s>", n.tag)
		for _, c := range n.children {
			writeNode(b, c)
		}
		fmt.Fprintf(b, "</%s>", n.tag)
	case KindText:
		fmt.Fprintf(b, "%q", n.tag)
	case KindMarker:
		fmt.Fprintf(b, "<!--%s-->", n.tag)
	}
}

func (d *Document) node(handle any) *Node {
	n, ok := handle.(*Node)
	if !ok || n == nil {
		panic(fmt.Sprintf("vtree: foreign node handle %T", handle))
	}
	return n
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	panic("vtree: node is not a child of this parent")
}
