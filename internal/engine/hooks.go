package engine

import (
	"fmt"
	"reflect"

	"github.com/emonkak/barebind-sub006/internal/host"
)

// The hook API. Every function must be called unconditionally and in the
// same relative order on every render of a given instance; the hook store
// enforces this by position and fails the render on any deviation.

// UseState returns the current value for this call site and a setter.
// Setting an identical value (see identical) schedules nothing; this is the
// primary short-circuit for idempotent updates.
func UseState[T any](rc *RenderContext, initial T) (T, func(T)) {
	return UseReducer(rc, func(_ T, next T) T { return next }, initial)
}

// UseReducer returns the current state and a dispatch that feeds actions
// through reducer. Dispatch is bound once, on first render, and stays valid
// for the binding's lifetime. If the reduced next state is identical to the
// current one, no re-render is scheduled.
func UseReducer[S, A any](rc *RenderContext, reducer func(S, A) S, initial S) (S, func(A)) {
	rec, isNew := rc.next(hookState)
	if isNew {
		cell := &stateCell{
			value:   initial,
			reducer: func(state, action any) any { return reducer(state.(S), action.(A)) },
		}
		b, e := rc.binding, rc.engine
		cell.dispatch = func(action any) { e.dispatchState(b, cell, action, 0) }
		rec.state = cell
	}
	cell := rec.state
	cell.consume()
	return cell.value.(S), func(a A) { cell.dispatch(a) }
}

// UseMemo returns factory's result, recomputed only when any positional
// element of deps differs from the previous snapshot by identity. A nil deps
// list forces recomputation every render.
func UseMemo[T any](rc *RenderContext, factory func() T, deps []any) T {
	rec, isNew := rc.next(hookMemo)
	if isNew {
		rec.memo = &memoCell{}
	}
	cell := rec.memo
	if isNew || deps == nil || !sameDeps(cell.deps, deps) {
		cell.value = factory()
		cell.deps = deps
	}
	return cell.value.(T)
}

// UseCallback memoizes fn under deps. Sugar over UseMemo.
func UseCallback[F any](rc *RenderContext, fn F, deps []any) F {
	return UseMemo(rc, func() F { return fn }, deps)
}

// Ref is a mutable box that persists across renders without participating
// in change detection.
type Ref[T any] struct {
	Current T
}

// UseRef returns the same *Ref on every render of this call site.
func UseRef[T any](rc *RenderContext, initial T) *Ref[T] {
	return UseMemo(rc, func() *Ref[T] { return &Ref[T]{Current: initial} }, []any{})
}

// UseEffect schedules callback into the passive phase when deps changed (or
// deps is nil). The returned cleanup runs immediately before the next run of
// the callback, and on unmount.
func UseEffect(rc *RenderContext, callback func() func(), deps []any) {
	useEffectAt(rc, PhasePassive, callback, deps)
}

// UseLayoutEffect is UseEffect in the layout phase: synchronous, immediately
// after tree mutations of the same frame.
func UseLayoutEffect(rc *RenderContext, callback func() func(), deps []any) {
	useEffectAt(rc, PhaseLayout, callback, deps)
}

// UseInsertionEffect is UseEffect in the mutation phase, running interleaved
// with the frame's tree mutations.
func UseInsertionEffect(rc *RenderContext, callback func() func(), deps []any) {
	useEffectAt(rc, PhaseMutation, callback, deps)
}

func useEffectAt(rc *RenderContext, phase EffectPhase, callback func() func(), deps []any) {
	rec, isNew := rc.next(hookEffect)
	if isNew {
		rec.effect = &effectCell{phase: phase, token: rc.binding.token}
	}
	cell := rec.effect
	if cell.phase != phase {
		// Same position, different commit phase: conditional hook usage.
		panic(newHookShapeError(rc.binding.token, rc.cursor-1,
			cell.phase.String()+" effect", phase.String()+" effect"))
	}
	changed := isNew || deps == nil || !sameDeps(cell.deps, deps)
	cell.callback = callback
	cell.deps = deps
	if changed {
		rc.effects = append(rc.effects, cell)
	}
}

// UseID returns an identifier that is stable across renders of this call
// site and unique within the engine.
func UseID(rc *RenderContext) string {
	rec, isNew := rc.next(hookIdentifier)
	if isNew {
		rec.id = rc.binding.nextID()
	}
	return rec.id
}

// UseDeferredValue returns the value from the previous render and schedules
// a background re-render carrying the fresh one, letting urgent renders
// reuse stale derived output. With an initial value, the first render
// returns it and upgrades in the background.
func UseDeferredValue[T any](rc *RenderContext, value T, initial ...T) T {
	rec, isNew := rc.next(hookState)
	if isNew {
		first := any(value)
		if len(initial) > 0 {
			first = initial[0]
		}
		cell := &stateCell{
			value:   first,
			reducer: func(_, next any) any { return next },
		}
		b, e := rc.binding, rc.engine
		cell.dispatch = func(action any) {
			e.dispatchState(b, cell, action, host.PriorityBackground)
		}
		rec.state = cell
	}
	cell := rec.state
	cell.consume()
	current := cell.value
	if !identical(current, value) {
		cell.dispatch(value)
	}
	return current.(T)
}

// UseSyncExternalStore subscribes the binding to an external store and
// returns its current snapshot. A snapshot change reported through the
// subscription schedules a re-render; unchanged snapshots schedule nothing.
func UseSyncExternalStore[T any](rc *RenderContext, subscribe func(onChange func()) func(), getSnapshot func() T) T {
	snapshot := getSnapshot()
	_, setSnapshot := UseState(rc, snapshot)
	UseEffect(rc, func() func() {
		onChange := func() { setSnapshot(getSnapshot()) }
		// Catch a change that slipped in between render and subscription.
		onChange()
		return subscribe(onChange)
	}, []any{})
	return snapshot
}

// dispatchState stages a reduced next state on the cell and requests an
// update for the binding. Identical next states are dropped without
// scheduling anything. A zero lane inherits the host's current priority.
func (e *Engine) dispatchState(b *ComponentBinding, cell *stateCell, action any, lane host.Priority) {
	base := cell.latest()
	next := cell.reducer(base, action)
	if identical(next, base) {
		return
	}
	if lane == 0 {
		lane = e.backend.CurrentPriority()
	}
	cell.pending = &pendingState{value: next, lane: lane}
	b.requestUpdate(e, UpdateOptions{Priority: lane})
}

// identical reports value identity: same dynamic type, comparable, and
// equal under ==. Uncomparable values (slices, maps, funcs) never compare
// identical, so deps containing them force recomputation.
func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// sameDeps compares dependency snapshots positionally by identity.
func sameDeps(prev, next []any) bool {
	if len(prev) != len(next) {
		return false
	}
	for i := range next {
		if !identical(prev[i], next[i]) {
			return false
		}
	}
	return true
}

// describeValue is used in mismatch diagnostics.
func describeValue(v any) string {
	return fmt.Sprintf("%T", v)
}
