package engine

import (
	"io"
	"log/slog"

	"github.com/emonkak/barebind-sub006/internal/host"
)

// State is the engine's scheduling state. A suspended render is not a
// distinct state: it shows up as StateScheduled with the binding parked in
// the suspended set, waiting for the next wave.
type State int

const (
	// StateIdle means no update work is pending.
	StateIdle State = iota
	// StateScheduled means update tasks are waiting for a host callback.
	StateScheduled
	// StateRendering means a component render pass is running.
	StateRendering
	// StateCommitting means the synchronous commit span is running.
	StateCommitting
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScheduled:
		return "scheduled"
	case StateRendering:
		return "rendering"
	case StateCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

// Engine is the update coordinator: it owns the dirty and suspended binding
// sets, the three commit-phase effect queues, the contextual-value scope
// chain, and the bridge to the host scheduler.
//
// All mutations happen on the host's single update timeline. External code
// enters the engine only through Mount/Unmount and through dispatch
// functions returned by hooks, all of which funnel into the coalescing
// microtask. A host backend that parallelizes callbacks must add its own
// mutual exclusion; the engine itself takes none.
//
// Construct one Engine per runtime root. The shared sets are fields, not
// globals, so independent roots (and tests) never interfere.
type Engine struct {
	backend host.Backend
	leaf    Resolver
	logger  *slog.Logger
	tracer  Tracer
	clock   *Clock
	tokens  TokenGenerator
	onError func(error)

	state         State
	dirty         map[*ComponentBinding]*UpdateTask
	suspended     []*ComponentBinding
	lanes         [host.PriorityUserBlocking + 1][]*ComponentBinding
	laneScheduled [host.PriorityUserBlocking + 1]bool

	mutation         []Effect
	layout           []Effect
	passive          []Effect
	passiveScheduled bool

	rootEnv    *EnvScope
	bindingSeq int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLeafResolver supplies the resolver for primitive content values. The
// engine resolves its own value kinds (components, keyed lists) and hands
// everything else here.
func WithLeafResolver(r Resolver) Option {
	return func(e *Engine) { e.leaf = r }
}

// WithLogger sets the structured logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTracer sets the trace sink for engine events.
func WithTracer(t Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithTokenGenerator overrides binding token generation; tests use a fixed
// generator for deterministic traces.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) { e.tokens = g }
}

// WithClock overrides the trace clock, for appending to an existing trace.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithErrorHandler receives errors raised during commit (effect failures,
// unresolvable values). Defaults to logging at error level.
func WithErrorHandler(fn func(error)) Option {
	return func(e *Engine) { e.onError = fn }
}

// New creates an engine bound to a host backend.
func New(backend host.Backend, opts ...Option) *Engine {
	e := &Engine{
		backend: backend,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:  NopTracer{},
		clock:   NewClock(),
		tokens:  UUIDv7Generator{},
		dirty:   make(map[*ComponentBinding]*UpdateTask),
		rootEnv: NewEnvScope(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the engine's current scheduling state.
func (e *Engine) State() State { return e.state }

// SetEnv sets a contextual value on the root scope, visible to every
// component in this engine.
func (e *Engine) SetEnv(key, value any) { e.rootEnv.Set(key, value) }

// Dirty reports whether the binding has an update task outstanding.
func (e *Engine) Dirty(b *ComponentBinding) bool {
	_, ok := e.dirty[b]
	return ok
}

// Mount creates a component binding at part and schedules its first render.
// The render itself runs when the host grants a callback; with the
// deterministic backend, after the next flush.
func (e *Engine) Mount(component Component, props any, part Part) (*ComponentBinding, error) {
	b := e.newComponentBinding(ComponentValue{Component: component, Props: props}, part, e.rootEnv)
	if err := b.Connect(e); err != nil {
		return nil, err
	}
	if err := b.Bind(ComponentValue{Component: component, Props: props}, e); err != nil {
		return nil, err
	}
	e.logger.Debug("mounted component", "binding", b.token)
	return b, nil
}

// Unmount destroys a binding: pending updates are suppressed, every
// committed effect cleanup runs in reverse registration order, and the
// binding's node range is removed from the tree.
func (e *Engine) Unmount(b *ComponentBinding) {
	b.Unbind(e)
	b.Disconnect(e)
	e.emit(Event{Kind: EventUnmount, Token: b.token})
	e.logger.Debug("unmounted component", "binding", b.token)
}

// emit stamps and records one trace event.
func (e *Engine) emit(ev Event) {
	ev.Seq = e.clock.Next()
	e.tracer.Record(ev)
}

// raise reports an error from the commit path. Commit errors cannot fail a
// render that already completed; they surface through the error handler
// (the host's unhandled-error channel by default).
func (e *Engine) raise(err error) {
	if e.onError != nil {
		e.onError(err)
		return
	}
	e.logger.Error("commit error", "error", err)
}
