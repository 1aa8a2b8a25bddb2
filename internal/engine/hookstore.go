package engine

import "github.com/emonkak/barebind-sub006/internal/host"

// hookKind tags one variant of the hook record union.
type hookKind int

const (
	hookState hookKind = iota + 1
	hookMemo
	hookEffect
	hookIdentifier
	hookFinalizer
)

func (k hookKind) String() string {
	switch k {
	case hookState:
		return "state"
	case hookMemo:
		return "memo"
	case hookEffect:
		return "effect"
	case hookIdentifier:
		return "identifier"
	case hookFinalizer:
		return "finalizer"
	default:
		return "unknown"
	}
}

// hookRecord is one call site's persistent state. Exactly one of the variant
// fields is set, selected by kind. Records are order-significant: the
// sequence of kinds must be identical across every render of an instance.
type hookRecord struct {
	kind   hookKind
	state  *stateCell
	memo   *memoCell
	effect *effectCell
	id     string
}

// stateCell backs one useState/useReducer call site.
type stateCell struct {
	// value is the current state, updated when a pending value is
	// consumed by a render pass.
	value   any
	reducer func(state, action any) any

	// dispatch is bound once, on first render, so callers may retain it
	// across renders.
	dispatch func(action any)

	// pending is the staged next value awaiting a render, with the lane
	// it was dispatched under. Nil when no update is outstanding.
	pending *pendingState
}

type pendingState struct {
	value any
	lane  host.Priority
}

// latest returns the value a new dispatch should reduce from: the staged
// pending value if one exists, else the current value.
func (c *stateCell) latest() any {
	if c.pending != nil {
		return c.pending.value
	}
	return c.value
}

// consume applies the staged value, if any, at the start of a render pass.
func (c *stateCell) consume() {
	if c.pending != nil {
		c.value = c.pending.value
		c.pending = nil
	}
}

// memoCell backs one useMemo/useCallback/useRef call site.
type memoCell struct {
	value any
	deps  []any
}

// effectCell backs one effect call site. It lives in the hook store and is
// enqueued into the matching phase queue whenever its deps change.
type effectCell struct {
	phase    EffectPhase
	callback func() func()
	deps     []any
	cleanup  func()
	token    string
	dead     bool
}

// Commit implements Effect: the previous cleanup (if any) runs immediately
// before the new callback, never earlier, never skipped. A dead cell is a
// no-op: its binding unmounted after the cell was queued, and its cleanup
// already ran with the unmount.
func (c *effectCell) Commit(e *Engine) {
	if c.dead {
		return
	}
	if c.cleanup != nil {
		c.cleanup()
		c.cleanup = nil
	}
	e.emit(Event{Kind: EventEffect, Token: c.token, Phase: c.phase.String()})
	c.cleanup = c.callback()
}

// hookStore is the ordered, append-only-per-render arena of hook records for
// one component instance. A cursor (owned by the RenderContext) walks it by
// position; finalize freezes the sequence after the first render.
type hookStore struct {
	records   []hookRecord
	finalized bool
}

// next returns the record at position cursor, appending a fresh one when the
// store is still growing. Returns isNew=true for a freshly appended record.
// A kind mismatch or growth after finalization is a fatal runtime error.
func (s *hookStore) next(cursor int, kind hookKind, token string) (*hookRecord, bool, error) {
	if cursor < len(s.records) {
		rec := &s.records[cursor]
		if rec.kind != kind {
			return nil, false, newHookShapeError(token, cursor, rec.kind.String(), kind.String())
		}
		return rec, false, nil
	}
	if s.finalized {
		return nil, false, newHookOverflowError(token, cursor, kind.String())
	}
	s.records = append(s.records, hookRecord{kind: kind})
	return &s.records[len(s.records)-1], true, nil
}

// finalize ends a render pass at position cursor. On the first render it
// appends the terminal finalizer sentinel and freezes the sequence; on later
// renders it verifies the cursor landed exactly on the sentinel, which
// catches renders that called fewer hooks than before.
func (s *hookStore) finalize(cursor int, token string) error {
	if !s.finalized {
		s.records = append(s.records, hookRecord{kind: hookFinalizer})
		s.finalized = true
		return nil
	}
	if cursor >= len(s.records) || s.records[cursor].kind != hookFinalizer {
		want := "finalizer"
		if cursor < len(s.records) {
			want = s.records[cursor].kind.String()
		}
		return newHookShapeError(token, cursor, want, "finalizer")
	}
	return nil
}

// cleanups collects hook cleanups in reverse registration order, for
// unmount.
func (s *hookStore) cleanups() []func() {
	var fns []func()
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := &s.records[i]
		if rec.kind == hookEffect && rec.effect != nil && rec.effect.cleanup != nil {
			cell := rec.effect
			fns = append(fns, func() {
				cell.cleanup()
				cell.cleanup = nil
			})
		}
	}
	return fns
}

// retire marks every effect cell dead. A phase queue may still hold a cell
// whose frame committed before the unmount; retiring it keeps the callback
// from running against the dead instance.
func (s *hookStore) retire() {
	for i := range s.records {
		if rec := &s.records[i]; rec.kind == hookEffect && rec.effect != nil {
			rec.effect.dead = true
		}
	}
}
