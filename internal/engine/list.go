package engine

import (
	"github.com/emonkak/barebind-sub006/internal/reconcile"
)

// ListBinding keeps a dynamic keyed collection in sync with its source
// list. Every Bind stages the desired (key, value) pairs; Commit diffs them
// against the committed items with the keyed reconciler and applies the
// resulting edit script to the tree.
//
// Each item owns a sentinel marker placed immediately before its content
// and a tail marker closing its range. The sentinel is the stable
// "insert/move before this point" reference the edit script addresses; the
// pair bounds the contiguous range that Move relocates atomically.
type ListBinding struct {
	part Part
	env  *EnvScope

	// start/end bound the whole collection; end is the container's
	// trailing anchor for the edit script.
	start any
	end   any

	items []*reconcile.Item[any]
	slots map[*reconcile.Item[any]]*listSlot

	staged    []reconcile.Pair[any]
	hasStaged bool
	connected bool
}

type listSlot struct {
	sentinel any
	tail     any
	content  Binding
}

func newListBinding(part Part, env *EnvScope) *ListBinding {
	return &ListBinding{
		part:  part,
		env:   env,
		slots: make(map[*reconcile.Item[any]]*listSlot),
	}
}

// Connect implements Binding.
func (b *ListBinding) Connect(e *Engine) error {
	if b.connected {
		return nil
	}
	b.start = b.part.Tree.CreateMarker("list")
	b.end = b.part.Tree.CreateMarker("/list")
	b.part.insert(b.start)
	b.part.insert(b.end)
	b.connected = true
	return nil
}

// Bind implements Binding: stages the desired sequence for the next commit.
func (b *ListBinding) Bind(value any, e *Engine) error {
	v, ok := value.(KeyedList)
	if !ok {
		return newValueMismatchError("KeyedList", value)
	}
	pairs := make([]reconcile.Pair[any], len(v.Entries))
	for i, entry := range v.Entries {
		pairs[i] = reconcile.Pair[any]{Key: entry.Key, Content: entry.Value}
	}
	b.staged = pairs
	b.hasStaged = true
	return nil
}

// Commit implements Binding: runs the keyed diff and applies the edit
// script in order. Runs in the mutation phase.
func (b *ListBinding) Commit(e *Engine) error {
	if !b.hasStaged {
		return nil
	}
	staged := b.staged
	b.staged = nil
	b.hasStaged = false

	script, err := reconcile.Diff(b.items, staged)
	if err != nil {
		return &RuntimeError{
			Code:      ErrCodeDuplicateKey,
			Message:   "keyed reconciliation rejected",
			HookIndex: -1,
			Err:       err,
		}
	}
	b.items = script.Items

	tree := b.part.Tree
	container := b.part.Container
	for _, edit := range script.Edits {
		// ref is the insertion anchor; beforeKey mirrors it in the trace
		// so a recorded edit script can be replayed positionally.
		ref := b.end
		beforeKey := ""
		if edit.Before != nil {
			ref = b.slots[edit.Before].sentinel
			beforeKey = edit.Before.Key
		}

		switch edit.Op {
		case reconcile.OpInsert:
			slot := &listSlot{
				sentinel: tree.CreateMarker("item:" + edit.Item.Key),
				tail:     tree.CreateMarker("/item:" + edit.Item.Key),
			}
			tree.InsertBefore(container, slot.sentinel, ref)
			tree.InsertBefore(container, slot.tail, ref)
			b.slots[edit.Item] = slot
			e.emit(Event{Kind: EventEdit, Op: edit.Op.String(), Key: edit.Item.Key, Detail: beforeKey})
			content, err := e.rebind(nil, edit.Content, b.part.withAnchor(slot.tail), b.env)
			slot.content = content
			if err != nil {
				return err
			}

		case reconcile.OpMove:
			slot := b.slots[edit.Item]
			tree.MoveRange(container, slot.sentinel, slot.tail, ref)
			e.emit(Event{Kind: EventEdit, Op: edit.Op.String(), Key: edit.Item.Key, Detail: beforeKey})
			content, err := e.rebind(slot.content, edit.Content, b.part.withAnchor(slot.tail), b.env)
			slot.content = content
			if err != nil {
				return err
			}

		case reconcile.OpRemove:
			slot := b.slots[edit.Item]
			delete(b.slots, edit.Item)
			e.emit(Event{Kind: EventEdit, Op: edit.Op.String(), Key: edit.Item.Key})
			if slot.content != nil {
				slot.content.Unbind(e)
				slot.content.Disconnect(e)
			}
			tree.Remove(slot.sentinel)
			tree.Remove(slot.tail)

		case reconcile.OpUpdate:
			slot := b.slots[edit.Item]
			e.emit(Event{Kind: EventEdit, Op: edit.Op.String(), Key: edit.Item.Key})
			content, err := e.rebind(slot.content, edit.Content, b.part.withAnchor(slot.tail), b.env)
			slot.content = content
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Unbind implements Binding: releases every item's value in order.
func (b *ListBinding) Unbind(e *Engine) {
	b.staged = nil
	b.hasStaged = false
	for _, item := range b.items {
		if slot := b.slots[item]; slot != nil && slot.content != nil {
			slot.content.Unbind(e)
		}
	}
}

// Disconnect implements Binding: removes every item's range and the list
// boundary from the tree.
func (b *ListBinding) Disconnect(e *Engine) {
	tree := b.part.Tree
	for _, item := range b.items {
		slot := b.slots[item]
		if slot == nil {
			continue
		}
		if slot.content != nil {
			slot.content.Disconnect(e)
		}
		tree.Remove(slot.sentinel)
		tree.Remove(slot.tail)
	}
	b.items = nil
	b.slots = make(map[*reconcile.Item[any]]*listSlot)
	if b.connected {
		tree.Remove(b.start)
		tree.Remove(b.end)
		b.connected = false
	}
}

// Range implements Binding.
func (b *ListBinding) Range() (any, any) { return b.start, b.end }
