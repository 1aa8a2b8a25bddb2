package engine

// EffectPhase is one of the three ordered commit stages.
type EffectPhase int

const (
	// PhaseMutation effects apply tree mutations: reconciler edit scripts,
	// binding commits, insertion-effect hooks. First, synchronous.
	PhaseMutation EffectPhase = iota + 1
	// PhaseLayout effects run immediately after mutations, still within
	// the same uninterrupted span, with the tree in its new shape.
	PhaseLayout
	// PhasePassive effects are deferred to a background host callback and
	// run only after at least one yield back to the host.
	PhasePassive
)

// String returns the lowercase phase name.
func (p EffectPhase) String() string {
	switch p {
	case PhaseMutation:
		return "mutation"
	case PhaseLayout:
		return "layout"
	case PhasePassive:
		return "passive"
	default:
		return "unknown"
	}
}

// Effect is one queued unit of commit work. Collaborators may enqueue their
// own effects into the engine's phase queues via Engine.EnqueueEffect.
//
// A panic inside Commit is not caught by the engine; it propagates to the
// host's unhandled-error channel. Cleanups already registered by earlier
// commits still run on the next pass.
type Effect interface {
	Commit(e *Engine)
}

// EffectFunc adapts a plain function to the Effect interface.
type EffectFunc func(e *Engine)

// Commit implements Effect.
func (f EffectFunc) Commit(e *Engine) { f(e) }

// EnqueueEffect adds an effect to the queue for the given phase of the
// current frame. Mutation and layout effects run in the frame's synchronous
// commit span; passive effects run in a later background turn.
func (e *Engine) EnqueueEffect(phase EffectPhase, effect Effect) {
	switch phase {
	case PhaseMutation:
		e.mutation = append(e.mutation, effect)
	case PhaseLayout:
		e.layout = append(e.layout, effect)
	case PhasePassive:
		e.passive = append(e.passive, effect)
	}
}
