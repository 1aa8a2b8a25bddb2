package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emonkak/barebind-sub006/internal/reconcile"
)

// listFixture mounts a component whose content is a keyed list driven by
// state, and returns the setter that swaps in a new sequence.
func listFixture(t *testing.T, initial []KeyedEntry) (*fixture, func([]KeyedEntry)) {
	t.Helper()
	f := newFixture(t)
	var setEntries func([]KeyedEntry)
	f.mount(t, func(rc *RenderContext) (any, error) {
		entries, set := UseState(rc, initial)
		setEntries = set
		return KeyedList{Entries: entries}, nil
	}, nil)
	return f, setEntries
}

func entries(kvs ...string) []KeyedEntry {
	out := make([]KeyedEntry, 0, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		out = append(out, KeyedEntry{Key: kvs[i], Value: kvs[i+1]})
	}
	return out
}

func (r *recordTracer) editOps() map[string]int {
	counts := make(map[string]int)
	for _, ev := range r.ofKind(EventEdit) {
		counts[ev.Op]++
	}
	return counts
}

func TestListBinding_MountInsertsInOrder(t *testing.T) {
	f, _ := listFixture(t, entries("a", "1", "b", "2", "c", "3"))

	assert.Equal(t, "123", f.doc.Text())
	assert.Equal(t, map[string]int{
		reconcile.OpInsert.String(): 3,
	}, f.tracer.editOps())
}

func TestListBinding_ClearRemovesEverything(t *testing.T) {
	f, setEntries := listFixture(t, entries("a", "1", "b", "2"))

	f.tracer.events = nil
	setEntries(nil)
	f.flush(t)

	assert.Equal(t, "", f.doc.Text())
	assert.Equal(t, map[string]int{
		reconcile.OpRemove.String(): 2,
	}, f.tracer.editOps())
}

func TestListBinding_RotationIsOneMove(t *testing.T) {
	f, setEntries := listFixture(t, entries("a", "1", "b", "2", "c", "3"))

	f.tracer.events = nil
	setEntries(entries("b", "2", "c", "3", "a", "1"))
	f.flush(t)

	assert.Equal(t, "231", f.doc.Text())
	ops := f.tracer.editOps()
	assert.Equal(t, 1, ops[reconcile.OpMove.String()])
	assert.Zero(t, ops[reconcile.OpInsert.String()])
	assert.Zero(t, ops[reconcile.OpRemove.String()])
}

func TestListBinding_ScrambleThroughMapFallback(t *testing.T) {
	f, setEntries := listFixture(t, entries("a", "1", "b", "2", "c", "3", "d", "4", "e", "5"))

	f.tracer.events = nil
	setEntries(entries("c", "3", "x", "9", "e", "5", "b", "2"))
	f.flush(t)

	assert.Equal(t, "3952", f.doc.Text())
	ops := f.tracer.editOps()
	assert.Equal(t, 1, ops[reconcile.OpInsert.String()])
	assert.Equal(t, 2, ops[reconcile.OpRemove.String()])
}

func TestListBinding_ValueUpdatesInPlace(t *testing.T) {
	f, setEntries := listFixture(t, entries("a", "1", "b", "2"))

	f.tracer.events = nil
	setEntries(entries("a", "1", "b", "9"))
	f.flush(t)

	assert.Equal(t, "19", f.doc.Text())
	ops := f.tracer.editOps()
	assert.Zero(t, ops[reconcile.OpInsert.String()])
	assert.Zero(t, ops[reconcile.OpMove.String()])
	assert.Zero(t, ops[reconcile.OpRemove.String()])
}

func TestListBinding_RemoveRunsItemTeardown(t *testing.T) {
	f := newFixture(t)

	var cleaned []string
	item := func(rc *RenderContext) (any, error) {
		label := rc.Props().(string)
		UseEffect(rc, func() func() {
			return func() { cleaned = append(cleaned, label) }
		}, []any{})
		return label, nil
	}
	itemEntry := func(key, label string) KeyedEntry {
		return KeyedEntry{Key: key, Value: ComponentValue{Component: item, Props: label}}
	}

	var setEntries func([]KeyedEntry)
	f.mount(t, func(rc *RenderContext) (any, error) {
		list, set := UseState(rc, []KeyedEntry{
			itemEntry("a", "1"), itemEntry("b", "2"), itemEntry("c", "3"),
		})
		setEntries = set
		return KeyedList{Entries: list}, nil
	}, nil)
	require.Equal(t, "123", f.doc.Text())

	setEntries([]KeyedEntry{itemEntry("a", "1"), itemEntry("c", "3")})
	f.flush(t)

	assert.Equal(t, "13", f.doc.Text())
	assert.Equal(t, []string{"2"}, cleaned)
}

func TestListBinding_ItemStateFollowsTheKey(t *testing.T) {
	f := newFixture(t)

	setters := make(map[string]func(string))
	item := func(rc *RenderContext) (any, error) {
		key := rc.Props().(string)
		text, set := UseState(rc, key)
		setters[key] = set
		return text, nil
	}
	itemEntry := func(key string) KeyedEntry {
		return KeyedEntry{Key: key, Value: ComponentValue{Component: item, Props: key}}
	}

	var setEntries func([]KeyedEntry)
	f.mount(t, func(rc *RenderContext) (any, error) {
		list, set := UseState(rc, []KeyedEntry{itemEntry("a"), itemEntry("b")})
		setEntries = set
		return KeyedList{Entries: list}, nil
	}, nil)
	require.Equal(t, "ab", f.doc.Text())

	setters["b"]("B!")
	f.flush(t)
	require.Equal(t, "aB!", f.doc.Text())

	// The edited state rides along with the keyed item when it moves.
	setEntries([]KeyedEntry{itemEntry("b"), itemEntry("a")})
	f.flush(t)
	assert.Equal(t, "B!a", f.doc.Text())
}

func TestListBinding_DuplicateKeyRaises(t *testing.T) {
	var raised []error
	f := newFixture(t, WithErrorHandler(func(err error) { raised = append(raised, err) }))

	var setEntries func([]KeyedEntry)
	f.mount(t, func(rc *RenderContext) (any, error) {
		list, set := UseState(rc, entries("a", "1", "b", "2"))
		setEntries = set
		return KeyedList{Entries: list}, nil
	}, nil)
	require.Equal(t, "12", f.doc.Text())

	setEntries(entries("a", "1", "a", "2"))
	f.flush(t)

	require.Len(t, raised, 1)
	assert.True(t, IsDuplicateKeyError(raised[0]))
	var dup *reconcile.DuplicateKeyError
	require.ErrorAs(t, raised[0], &dup)
	assert.Equal(t, "a", dup.Key)

	// The committed sequence is untouched by the rejected pass.
	assert.Equal(t, "12", f.doc.Text())
}

func TestListBinding_NonListValueIsMismatch(t *testing.T) {
	f := newFixture(t)
	lb := newListBinding(f.rootPart(), NewEnvScope(nil))
	require.NoError(t, lb.Connect(f.engine))

	err := lb.Bind("not a list", f.engine)
	assert.True(t, hasCode(err, ErrCodeValueMismatch))
}
