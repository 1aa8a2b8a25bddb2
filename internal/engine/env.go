package engine

// EnvScope is a contextual-value scope. Lookups walk the parent chain, so a
// component sees values set by any ancestor and may shadow them for its own
// subtree. Scopes are created per component binding, rooted at the engine.
type EnvScope struct {
	parent *EnvScope
	values map[any]any
}

// NewEnvScope creates a scope chained to parent (which may be nil).
func NewEnvScope(parent *EnvScope) *EnvScope {
	return &EnvScope{parent: parent}
}

// Get returns the value for key from this scope or the nearest ancestor
// that has it.
func (s *EnvScope) Get(key any) (any, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if v, ok := scope.values[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set stores a value in this scope, shadowing any ancestor value for key.
func (s *EnvScope) Set(key, value any) {
	if s.values == nil {
		s.values = make(map[any]any)
	}
	s.values[key] = value
}
