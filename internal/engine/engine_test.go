package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emonkak/barebind-sub006/internal/host"
	"github.com/emonkak/barebind-sub006/internal/vtree"
)

// recordTracer captures events in commit order for assertions.
type recordTracer struct {
	events []Event
}

func (r *recordTracer) Record(ev Event) { r.events = append(r.events, ev) }

func (r *recordTracer) ofKind(kind EventKind) []Event {
	var out []Event
	for _, ev := range r.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recordTracer) count(kind EventKind) int { return len(r.ofKind(kind)) }

// seqTokens replaces UUID tokens with stable short ones.
type seqTokens struct{ n int }

func (g *seqTokens) Generate() string {
	g.n++
	return fmt.Sprintf("b-%02d", g.n)
}

// textBinding is the leaf binding used throughout the engine tests: it
// renders a string value into one text node.
type textBinding struct {
	part      Part
	node      any
	staged    string
	hasStaged bool
	connected bool
}

func (b *textBinding) Connect(e *Engine) error {
	if b.connected {
		return nil
	}
	b.node = b.part.Tree.CreateText("")
	b.part.insert(b.node)
	b.connected = true
	return nil
}

func (b *textBinding) Bind(value any, e *Engine) error {
	s, ok := value.(string)
	if !ok {
		return newValueMismatchError("string", value)
	}
	b.staged = s
	b.hasStaged = true
	return nil
}

func (b *textBinding) Commit(e *Engine) error {
	if b.hasStaged {
		b.part.Tree.SetText(b.node, b.staged)
		b.hasStaged = false
	}
	return nil
}

func (b *textBinding) Unbind(e *Engine) {}

func (b *textBinding) Disconnect(e *Engine) {
	if b.connected {
		b.part.Tree.Remove(b.node)
		b.connected = false
	}
}

func (b *textBinding) Range() (any, any) { return b.node, b.node }

type textResolver struct{}

func (textResolver) Resolve(value any, part Part) (Binding, error) {
	if _, ok := value.(string); !ok {
		return nil, fmt.Errorf("unsupported leaf value %T", value)
	}
	return &textBinding{part: part}, nil
}

// fixture wires an engine to the deterministic backend and the in-memory
// tree.
type fixture struct {
	backend *host.Deterministic
	doc     *vtree.Document
	engine  *Engine
	tracer  *recordTracer
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		backend: host.NewDeterministic(),
		doc:     vtree.NewDocument(),
		tracer:  &recordTracer{},
	}
	opts = append([]Option{
		WithLeafResolver(textResolver{}),
		WithTracer(f.tracer),
		WithTokenGenerator(&seqTokens{}),
	}, opts...)
	f.engine = New(f.backend, opts...)
	return f
}

func (f *fixture) rootPart() Part {
	return Part{Tree: f.doc, Container: f.doc.Root()}
}

func (f *fixture) flush(t *testing.T) {
	t.Helper()
	require.NoError(t, f.backend.Flush())
}

func (f *fixture) mount(t *testing.T, component Component, props any) *ComponentBinding {
	t.Helper()
	b, err := f.engine.Mount(component, props, f.rootPart())
	require.NoError(t, err)
	f.flush(t)
	return b
}

func TestEngine_MountCommitsAfterFlush(t *testing.T) {
	f := newFixture(t)

	b, err := f.engine.Mount(func(rc *RenderContext) (any, error) {
		return "hello", nil
	}, nil, f.rootPart())
	require.NoError(t, err)

	// Nothing renders before the host grants a callback.
	assert.Equal(t, "", f.doc.Text())
	assert.True(t, f.engine.Dirty(b) || f.backend.Pending())

	f.flush(t)
	assert.Equal(t, "hello", f.doc.Text())
	assert.Equal(t, StateIdle, f.engine.State())
	assert.False(t, f.engine.Dirty(b))
	assert.Equal(t, 1, f.tracer.count(EventRenderComplete))
}

func TestEngine_PropsReachTheComponent(t *testing.T) {
	f := newFixture(t)

	f.mount(t, func(rc *RenderContext) (any, error) {
		return "got:" + rc.Props().(string), nil
	}, "x")

	assert.Equal(t, "got:x", f.doc.Text())
}

func TestEngine_ContentKindReplacement(t *testing.T) {
	f := newFixture(t)

	var setList func(bool)
	f.mount(t, func(rc *RenderContext) (any, error) {
		list, set := UseState(rc, false)
		setList = set
		if list {
			return KeyedList{Entries: []KeyedEntry{{Key: "a", Value: "item"}}}, nil
		}
		return "plain", nil
	}, nil)
	assert.Equal(t, "plain", f.doc.Text())

	// The string binding cannot represent a list; it is torn down and
	// replaced rather than rebound.
	setList(true)
	f.flush(t)
	assert.Equal(t, "item", f.doc.Text())

	setList(false)
	f.flush(t)
	assert.Equal(t, "plain", f.doc.Text())
}

func TestEngine_NestedComponents(t *testing.T) {
	f := newFixture(t)

	child := func(rc *RenderContext) (any, error) {
		return "child:" + rc.Props().(string), nil
	}
	f.mount(t, func(rc *RenderContext) (any, error) {
		return ComponentValue{Component: child, Props: "p"}, nil
	}, nil)

	assert.Equal(t, "child:p", f.doc.Text())
	assert.Equal(t, 2, f.tracer.count(EventRenderComplete))
}

func TestEngine_EnvScopeShadowing(t *testing.T) {
	f := newFixture(t)
	type themeKey struct{}
	f.engine.SetEnv(themeKey{}, "root")

	leaf := func(rc *RenderContext) (any, error) {
		v, ok := rc.Env(themeKey{})
		require.True(t, ok)
		return v.(string), nil
	}
	shadowing := func(rc *RenderContext) (any, error) {
		rc.SetEnv(themeKey{}, "inner")
		return ComponentValue{Component: leaf}, nil
	}

	f.mount(t, shadowing, nil)
	assert.Equal(t, "inner", f.doc.Text())

	// A sibling mount never sees the shadowed value.
	g := newFixture(t)
	g.engine.SetEnv(themeKey{}, "root")
	g.mount(t, leaf, nil)
	assert.Equal(t, "root", g.doc.Text())
}

func TestEngine_RenderErrorFailsTheTask(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("boom")

	var fail bool
	b := f.mount(t, func(rc *RenderContext) (any, error) {
		if fail {
			return nil, boom
		}
		return "ok", nil
	}, nil)

	fail = true
	task := b.ForceUpdate(f.engine, UpdateOptions{})
	f.flush(t)

	assert.ErrorIs(t, task.Err(), boom)
	assert.Equal(t, 1, f.tracer.count(EventRenderError))
	// The committed content stays as it was.
	assert.Equal(t, "ok", f.doc.Text())
	assert.False(t, f.engine.Dirty(b))
}

func TestEngine_UnmountRemovesRangeAndRunsCleanups(t *testing.T) {
	f := newFixture(t)

	var cleaned []string
	b := f.mount(t, func(rc *RenderContext) (any, error) {
		UseEffect(rc, func() func() {
			return func() { cleaned = append(cleaned, "first") }
		}, []any{})
		UseEffect(rc, func() func() {
			return func() { cleaned = append(cleaned, "second") }
		}, []any{})
		return "content", nil
	}, nil)
	assert.Equal(t, "content", f.doc.Text())

	f.engine.Unmount(b)
	assert.Equal(t, "", f.doc.Text())
	assert.Empty(t, f.doc.Root().Children())
	// Reverse registration order.
	assert.Equal(t, []string{"second", "first"}, cleaned)
	assert.Equal(t, 1, f.tracer.count(EventUnmount))
}

func TestEngine_UpdateAfterUnmountFails(t *testing.T) {
	f := newFixture(t)

	b := f.mount(t, func(rc *RenderContext) (any, error) { return "x", nil }, nil)
	f.engine.Unmount(b)

	task := b.ForceUpdate(f.engine, UpdateOptions{})
	assert.True(t, IsUnmountedError(task.Err()))
	f.flush(t)
	assert.Equal(t, 1, f.tracer.count(EventRenderStart))
}
