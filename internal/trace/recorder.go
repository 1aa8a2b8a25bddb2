package trace

import (
	"context"
	"sync"

	"github.com/emonkak/barebind-sub006/internal/engine"
)

// Recorder is an in-memory engine.Tracer that buffers events until they are
// flushed to a Store (or inspected directly by tests and the CLI).
//
// Thread-safety: all methods take an internal mutex. The engine emits from
// one timeline, but the recorder may be read from another goroutine while a
// run is in progress.
type Recorder struct {
	mu     sync.Mutex
	events []engine.Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record implements engine.Tracer.
func (r *Recorder) Record(ev engine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the buffered events in emission order.
func (r *Recorder) Events() []engine.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]engine.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reset discards all buffered events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Flush persists the buffered events as run runID and clears the buffer.
func (r *Recorder) Flush(ctx context.Context, store *Store, runID, scenario string) error {
	events := r.Events()
	if err := store.WriteRun(ctx, runID, scenario); err != nil {
		return err
	}
	if err := store.WriteEvents(ctx, runID, events); err != nil {
		return err
	}
	r.Reset()
	return nil
}
