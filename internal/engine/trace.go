package engine

// EventKind identifies one kind of trace event.
type EventKind string

const (
	// EventSchedule records an update task entering the dirty set.
	EventSchedule EventKind = "schedule"
	// EventCoalesce records an update request absorbed into an existing
	// task for the same binding.
	EventCoalesce EventKind = "coalesce"
	// EventReject records a host backend refusing a scheduling request.
	EventReject EventKind = "reject"
	// EventRenderStart records the beginning of a render pass.
	EventRenderStart EventKind = "render_start"
	// EventRenderSuspend records a render that could not complete.
	EventRenderSuspend EventKind = "render_suspend"
	// EventRenderComplete records a completed render pass.
	EventRenderComplete EventKind = "render_complete"
	// EventRenderError records a failed render pass.
	EventRenderError EventKind = "render_error"
	// EventEdit records one reconciler edit applied to the tree.
	EventEdit EventKind = "edit"
	// EventEffect records one effect commit, tagged with its phase.
	EventEffect EventKind = "effect"
	// EventCleanup records an effect cleanup run on unmount.
	EventCleanup EventKind = "cleanup"
	// EventUnmount records a binding teardown.
	EventUnmount EventKind = "unmount"
)

// Event is one entry of the engine's commit trace. Zero-valued fields are
// omitted when serialized.
type Event struct {
	// Seq is the logical clock stamp; strictly increasing per engine.
	Seq int64

	// Kind is the event kind.
	Kind EventKind

	// Token identifies the component binding involved, if any.
	Token string

	// Priority is the scheduling priority involved, if any.
	Priority string

	// Phase is the effect phase for EventEffect, empty otherwise.
	Phase string

	// Op and Key describe the edit for EventEdit, empty otherwise.
	Op  string
	Key string

	// Detail carries an error message or auxiliary text.
	Detail string
}

// Tracer receives engine events in commit order. Implementations must not
// re-enter the engine. The trace store persists events for replay; tests use
// an in-memory recorder.
type Tracer interface {
	Record(ev Event)
}

// NopTracer discards all events.
type NopTracer struct{}

// Record implements Tracer.
func (NopTracer) Record(Event) {}
