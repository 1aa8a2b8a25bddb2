package engine

// Binding is the live, stateful counterpart of a declared value at one mount
// point. The engine ships two binding kinds of its own, component bindings
// and keyed-list bindings, and delegates every other value to the leaf
// resolver, so components, list items, and primitive content compose
// structurally through this one closed capability set.
//
// Lifecycle: Connect mounts the binding's boundary into the tree; Bind
// stages a new value; Commit flushes the staged value to the tree (always in
// the mutation phase); Unbind releases the current value and its resources;
// Disconnect fully tears the binding out of the tree. Unbind before
// Disconnect is the full teardown sequence.
type Binding interface {
	Connect(e *Engine) error
	Bind(value any, e *Engine) error
	Unbind(e *Engine)
	Disconnect(e *Engine)
	Commit(e *Engine) error

	// Range returns the binding's contiguous committed node range
	// [start, end] within its container. Both ends are always attached
	// once the binding is connected.
	Range() (start, end any)
}

// Resolver maps a rendered value to a binding mounted at a part. The engine
// consults its own kinds first (ComponentValue, KeyedList) and hands
// everything else to the leaf resolver supplied at construction; the engine
// never constructs primitive content bindings itself.
type Resolver interface {
	Resolve(value any, part Part) (Binding, error)
}

// ComponentValue declares a component mount: a component function plus the
// props for this render.
type ComponentValue struct {
	Component Component
	Props     any
}

// KeyedEntry is one keyed element of a dynamic collection.
type KeyedEntry struct {
	Key   string
	Value any
}

// KeyedList declares a dynamic keyed collection. Binding it produces a list
// binding that reconciles entries with the keyed differ on every commit.
type KeyedList struct {
	Entries []KeyedEntry
}

// resolveBinding creates the binding for a rendered value: engine kinds
// first, then the leaf resolver.
func (e *Engine) resolveBinding(value any, part Part, env *EnvScope) (Binding, error) {
	switch v := value.(type) {
	case ComponentValue:
		return e.newComponentBinding(v, part, env), nil
	case KeyedList:
		return newListBinding(part, env), nil
	default:
		if e.leaf == nil {
			return nil, &RuntimeError{
				Code:      ErrCodeUnresolvedValue,
				Message:   "no resolver for value of type " + describeValue(value),
				HookIndex: -1,
			}
		}
		b, err := e.leaf.Resolve(value, part)
		if err != nil {
			return nil, &RuntimeError{
				Code:      ErrCodeUnresolvedValue,
				Message:   "leaf resolver failed for value of type " + describeValue(value),
				HookIndex: -1,
				Err:       err,
			}
		}
		return b, nil
	}
}

// rebind points binding at a new value, replacing the binding outright when
// the value's kind no longer matches (a component slot turning into text,
// for example). Returns the binding that now owns the part, connected,
// bound, and committed.
func (e *Engine) rebind(binding Binding, value any, part Part, env *EnvScope) (Binding, error) {
	if binding != nil {
		err := binding.Bind(value, e)
		if err == nil {
			if err := binding.Commit(e); err != nil {
				return binding, err
			}
			return binding, nil
		}
		if !hasCode(err, ErrCodeValueMismatch) {
			return binding, err
		}
		binding.Unbind(e)
		binding.Disconnect(e)
	}

	fresh, err := e.resolveBinding(value, part, env)
	if err != nil {
		return nil, err
	}
	if err := fresh.Connect(e); err != nil {
		return nil, err
	}
	if err := fresh.Bind(value, e); err != nil {
		return fresh, err
	}
	if err := fresh.Commit(e); err != nil {
		return fresh, err
	}
	return fresh, nil
}
