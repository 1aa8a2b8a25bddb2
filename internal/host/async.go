package host

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBackendClosed is returned by RequestCallback after Close.
var ErrBackendClosed = errors.New("host: backend closed")

// DefaultSlice is the time slice after which ShouldYield starts reporting
// true in the Async backend.
const DefaultSlice = 5 * time.Millisecond

// Async is a Backend for live processes. Work may be submitted from any
// goroutine; all of it runs serialized on the goroutine that calls Run, so
// the engine's single-writer assumptions hold.
//
// The queue uses a buffered signal channel so Run can wait for work while
// still honoring context cancellation.
type Async struct {
	mu         sync.Mutex
	microtasks []func()
	lanes      [PriorityUserBlocking + 1][]func()
	closed     bool
	busy       bool          // a callback is executing on the worker
	signal     chan struct{} // buffered size 1; coalesces wakeups

	// Worker-goroutine state. Only touched from Run.
	current    Priority
	sliceStart time.Time
	slice      time.Duration
}

// NewAsync creates an Async backend. The caller must run its loop:
//
//	go backend.Run(ctx)
func NewAsync() *Async {
	return &Async{
		signal:  make(chan struct{}, 1),
		current: DefaultPriority,
		slice:   DefaultSlice,
	}
}

// QueueMicrotask implements Backend. Safe from any goroutine.
func (a *Async) QueueMicrotask(fn func()) {
	a.mu.Lock()
	if !a.closed {
		a.microtasks = append(a.microtasks, fn)
	}
	a.mu.Unlock()
	a.wake()
}

// RequestCallback implements Backend. Safe from any goroutine.
func (a *Async) RequestCallback(priority Priority, work func()) error {
	if !priority.Valid() {
		return errors.New("host: invalid priority")
	}
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrBackendClosed
	}
	a.lanes[priority] = append(a.lanes[priority], work)
	a.mu.Unlock()
	a.wake()
	return nil
}

// YieldToMain implements Backend.
func (a *Async) YieldToMain(resume func()) {
	a.mu.Lock()
	if !a.closed {
		a.lanes[a.current] = append(a.lanes[a.current], resume)
	}
	a.mu.Unlock()
	a.wake()
}

// ShouldYield implements Backend. True once the current callback has held
// the worker longer than the configured slice.
func (a *Async) ShouldYield() bool {
	return time.Since(a.sliceStart) >= a.slice
}

// CurrentPriority implements Backend.
func (a *Async) CurrentPriority() Priority {
	return a.current
}

// StartViewTransition implements Backend. No transition scope; update runs
// directly on the worker.
func (a *Async) StartViewTransition(update func()) {
	update()
}

// Close rejects further submissions. Run drains what was already queued and
// then returns.
func (a *Async) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.wake()
}

// Run executes queued work until the context is cancelled, or until Close
// was called and the queues are drained. Must be called from exactly one
// goroutine.
func (a *Async) Run(ctx context.Context) error {
	for {
		work, priority, ok := a.take()
		if !ok {
			a.mu.Lock()
			closed := a.closed
			a.mu.Unlock()
			if closed {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-a.signal:
				continue
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		a.current = priority
		a.sliceStart = time.Now()
		work()
		a.current = DefaultPriority

		a.mu.Lock()
		a.busy = false
		a.mu.Unlock()
	}
}

// Pending reports whether queued or in-flight work remains. Callers that
// drive the engine from another goroutine poll this for quiescence.
func (a *Async) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.busy || len(a.microtasks) > 0 {
		return true
	}
	for _, lane := range a.lanes {
		if len(lane) > 0 {
			return true
		}
	}
	return false
}

// take pops the next unit of work: pending microtasks first, then the
// highest-priority lane, FIFO within a lane.
func (a *Async) take() (func(), Priority, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.microtasks) > 0 {
		fn := a.microtasks[0]
		a.microtasks[0] = nil
		a.microtasks = a.microtasks[1:]
		a.busy = true
		return fn, a.current, true
	}
	for p := PriorityUserBlocking; p >= PriorityBackground; p-- {
		lane := a.lanes[p]
		if len(lane) == 0 {
			continue
		}
		work := lane[0]
		lane[0] = nil
		a.lanes[p] = lane[1:]
		a.busy = true
		return work, p, true
	}
	return nil, DefaultPriority, false
}

// wake signals Run without blocking; a full buffer already means a wakeup
// is pending.
func (a *Async) wake() {
	select {
	case a.signal <- struct{}{}:
	default:
	}
}
