package engine

// RenderContext drives one render pass of a component function. It keeps the
// cursor into the binding's hook store and exposes the hook API (the UseXxx
// functions in this package take it as their first argument).
//
// A RenderContext is only valid for the duration of the render pass it was
// created for; retaining it is a programming error. Retain the dispatch
// functions returned by hooks instead.
type RenderContext struct {
	engine  *Engine
	binding *ComponentBinding
	cursor  int

	// effects registered during this pass; moved into the engine's phase
	// queues only if the pass completes.
	effects []*effectCell
}

// Props returns the props the component was bound with.
func (rc *RenderContext) Props() any {
	return rc.binding.props
}

// Token returns the binding's instance token.
func (rc *RenderContext) Token() string {
	return rc.binding.token
}

// Env looks up a contextual value, walking the binding's scope chain up to
// the engine root.
func (rc *RenderContext) Env(key any) (any, bool) {
	return rc.binding.env.Get(key)
}

// SetEnv sets a contextual value on this binding's own scope. Descendant
// components see it; ancestors and siblings do not.
func (rc *RenderContext) SetEnv(key, value any) {
	rc.binding.env.Set(key, value)
}

// ForceUpdate schedules a re-render of this binding regardless of state
// changes. Requests issued before the coalescing microtask fires are merged
// into one task; the returned task is shared by all of them.
func (rc *RenderContext) ForceUpdate(opts UpdateOptions) *UpdateTask {
	return rc.binding.requestUpdate(rc.engine, opts)
}

// renderBinding runs one render pass of b through a fresh RenderContext.
// Hook shape violations panic inside the hook API and are recovered here;
// any other panic is the component's own and propagates to the host.
// Effects registered by the pass are returned only when it completed.
func (e *Engine) renderBinding(b *ComponentBinding) (value any, effects []*effectCell, err error) {
	rc := &RenderContext{engine: e, binding: b}
	defer func() {
		if r := recover(); r != nil {
			re, ok := r.(*RuntimeError)
			if !ok {
				panic(r)
			}
			value, effects, err = nil, nil, re
		}
	}()

	v, rerr := b.component(rc)
	if rerr != nil {
		return nil, nil, rerr
	}
	if ferr := b.store.finalize(rc.cursor, b.token); ferr != nil {
		return nil, nil, ferr
	}
	return v, rc.effects, nil
}

// next advances the hook cursor, returning the record for the current call
// site. Hook shape violations abort the render by panicking with a
// *RuntimeError, which the engine recovers at the render boundary.
func (rc *RenderContext) next(kind hookKind) (*hookRecord, bool) {
	rec, isNew, err := rc.binding.store.next(rc.cursor, kind, rc.binding.token)
	if err != nil {
		panic(err)
	}
	rc.cursor++
	return rec, isNew
}
