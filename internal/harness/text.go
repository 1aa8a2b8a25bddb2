package harness

import (
	"fmt"
	"strconv"

	"github.com/emonkak/barebind-sub006/internal/engine"
)

// TextResolver is the leaf resolver used by the harness and the CLI: it
// renders primitive values as text nodes. The engine itself never
// constructs primitive bindings; everything that is not a component or a
// keyed list lands here.
type TextResolver struct{}

// Resolve implements engine.Resolver.
func (TextResolver) Resolve(value any, part engine.Part) (engine.Binding, error) {
	if _, err := formatText(value); err != nil {
		return nil, err
	}
	return &TextBinding{part: part}, nil
}

func formatText(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("no text form for value of type %T", value)
	}
}

// TextBinding renders one primitive value into one text node.
type TextBinding struct {
	part      engine.Part
	node      any
	staged    string
	hasStaged bool
	connected bool
}

// Connect implements engine.Binding.
func (b *TextBinding) Connect(e *engine.Engine) error {
	if b.connected {
		return nil
	}
	b.node = b.part.Tree.CreateText("")
	b.part.Tree.InsertBefore(b.part.Container, b.node, b.part.Anchor)
	b.connected = true
	return nil
}

// Bind implements engine.Binding: stages the value's text form. A value
// with no text form is a kind mismatch, which makes the engine replace
// this binding with a freshly resolved one.
func (b *TextBinding) Bind(value any, e *engine.Engine) error {
	s, err := formatText(value)
	if err != nil {
		return engine.NewValueMismatchError("text", value)
	}
	b.staged = s
	b.hasStaged = true
	return nil
}

// Commit implements engine.Binding: flushes the staged text to the node.
func (b *TextBinding) Commit(e *engine.Engine) error {
	if b.hasStaged {
		b.part.Tree.SetText(b.node, b.staged)
		b.hasStaged = false
	}
	return nil
}

// Unbind implements engine.Binding. Text has no resources to release.
func (b *TextBinding) Unbind(e *engine.Engine) {}

// Disconnect implements engine.Binding.
func (b *TextBinding) Disconnect(e *engine.Engine) {
	if b.connected {
		b.part.Tree.Remove(b.node)
		b.connected = false
	}
}

// Range implements engine.Binding.
func (b *TextBinding) Range() (any, any) { return b.node, b.node }
