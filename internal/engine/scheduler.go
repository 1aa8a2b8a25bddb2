package engine

import (
	"errors"

	"github.com/emonkak/barebind-sub006/internal/host"
)

// UpdateOptions qualify one update request. The zero value inherits the
// host's current priority with no transition scope.
type UpdateOptions struct {
	// Priority is the lane to schedule under; zero inherits the host's
	// current priority at submit time.
	Priority host.Priority

	// ViewTransition wraps the frame's synchronous commit span in the
	// host's view transition scope.
	ViewTransition bool
}

// merge folds another request's options in: the higher priority wins and
// flags accumulate.
func (o *UpdateOptions) merge(other UpdateOptions) {
	if other.Priority > o.Priority {
		o.Priority = other.Priority
	}
	o.ViewTransition = o.ViewTransition || other.ViewTransition
}

// UpdateTask is one pending update for one binding. Requests for a binding
// that already has a task are absorbed into it, so callers holding any of
// the coalesced handles observe the same completion.
type UpdateTask struct {
	binding  *ComponentBinding
	opts     UpdateOptions
	done     chan struct{}
	err      error
	finished bool
	absorbed []*UpdateTask
}

func newUpdateTask(b *ComponentBinding, opts UpdateOptions) *UpdateTask {
	return &UpdateTask{binding: b, opts: opts, done: make(chan struct{})}
}

// Done is closed when the task's render has committed, failed, or been
// cancelled. Err is valid afterwards.
func (t *UpdateTask) Done() <-chan struct{} { return t.done }

// Err returns the task's outcome: nil on commit, an UNMOUNTED error on
// cancellation, a CALLBACK_REJECTED error on host refusal, or the render's
// own error.
func (t *UpdateTask) Err() error { return t.err }

// Options returns the task's current (possibly merged) options.
func (t *UpdateTask) Options() UpdateOptions { return t.opts }

func (t *UpdateTask) merge(opts UpdateOptions) { t.opts.merge(opts) }

// absorb ties a duplicate task's completion to this one.
func (t *UpdateTask) absorb(dup *UpdateTask) {
	t.opts.merge(dup.opts)
	t.absorbed = append(t.absorbed, dup)
}

func (t *UpdateTask) complete(err error) {
	if t.finished {
		return
	}
	t.finished = true
	t.err = err
	close(t.done)
	for _, dup := range t.absorbed {
		dup.complete(err)
	}
	t.absorbed = nil
}

// submit moves a coalesced request into the scheduler. Exactly one dirty-set
// entry exists per binding; a second submission is absorbed into the first,
// upgrading its lane when the merged priority is higher.
func (e *Engine) submit(t *UpdateTask) {
	b := t.binding
	if b.unmounted {
		t.complete(newUnmountedError(b.token))
		return
	}

	if existing := e.dirty[b]; existing != nil {
		prev := existing.opts.Priority
		existing.absorb(t)
		if existing.opts.Priority > prev {
			// Upgrade: requeue in the higher lane. The stale entry in the
			// lower lane is skipped at flush by the priority check.
			e.enqueueLane(existing.opts.Priority, b, existing)
		}
		e.emit(Event{Kind: EventCoalesce, Token: b.token, Priority: existing.opts.Priority.String()})
		return
	}

	if t.opts.Priority == 0 {
		t.opts.Priority = e.backend.CurrentPriority()
	}
	b.priority = t.opts.Priority
	e.dirty[b] = t
	e.emit(Event{Kind: EventSchedule, Token: b.token, Priority: t.opts.Priority.String()})
	if e.state == StateIdle {
		e.state = StateScheduled
	}
	e.enqueueLane(t.opts.Priority, b, t)
}

// enqueueLane queues the binding in the lane and asks the host for one
// callback per non-empty lane. A rejected request clears the dirty entry so
// future schedule requests for the binding are not permanently blocked; the
// failure surfaces on the task.
func (e *Engine) enqueueLane(p host.Priority, b *ComponentBinding, t *UpdateTask) {
	e.lanes[p] = append(e.lanes[p], b)
	if e.laneScheduled[p] {
		return
	}
	if err := e.backend.RequestCallback(p, func() { e.flushLane(p) }); err != nil {
		rejected := newCallbackRejectedError(b.token, err)
		e.emit(Event{Kind: EventReject, Token: b.token, Priority: p.String(), Detail: err.Error()})
		e.logger.Warn("host rejected scheduling request",
			"binding", b.token, "priority", p.String(), "error", err)
		if e.dirty[b] == t {
			delete(e.dirty, b)
		}
		e.lanes[p] = e.lanes[p][:len(e.lanes[p])-1]
		t.complete(rejected)
		return
	}
	e.laneScheduled[p] = true
}

// flushLane is the host callback for one lane: it snapshots the lane queue
// and processes it as the first wave of the frame.
func (e *Engine) flushLane(p host.Priority) {
	e.laneScheduled[p] = false
	queue := e.lanes[p]
	e.lanes[p] = nil

	wave := queue[:0]
	for _, b := range queue {
		t := e.dirty[b]
		if t == nil || t.opts.Priority != p {
			// Cancelled, already rendered, or migrated to another lane.
			continue
		}
		wave = append(wave, b)
	}
	e.processWave(wave, p)
}

// renderedUnit pairs a completed render with its task for commit.
type renderedUnit struct {
	binding *ComponentBinding
	task    *UpdateTask
}

// processWave renders a batch of dirty bindings, commits what completed, and
// hands control back to the host between waves: bindings past the time slice
// and bindings that suspended are retried on the next wave. This bounds how
// long one commit can block the host's main work loop.
func (e *Engine) processWave(wave []*ComponentBinding, p host.Priority) {
	var completed []renderedUnit

	cut := len(wave)
	for i, b := range wave {
		if i > 0 && e.backend.ShouldYield() {
			cut = i
			break
		}
		t := e.dirty[b]
		if t == nil {
			continue
		}

		e.state = StateRendering
		e.emit(Event{Kind: EventRenderStart, Token: b.token, Priority: p.String()})
		value, effects, err := e.renderBinding(b)
		switch {
		case errors.Is(err, ErrRenderPending):
			// Stays in the dirty set: further schedule requests are
			// absorbed while the binding waits for its resource.
			e.emit(Event{Kind: EventRenderSuspend, Token: b.token})
			e.suspended = append(e.suspended, b)
		case err != nil:
			e.emit(Event{Kind: EventRenderError, Token: b.token, Detail: err.Error()})
			delete(e.dirty, b)
			t.complete(err)
		default:
			e.emit(Event{Kind: EventRenderComplete, Token: b.token})
			delete(e.dirty, b)
			for _, cell := range effects {
				e.EnqueueEffect(cell.phase, cell)
			}
			e.EnqueueEffect(PhaseMutation, &bindingCommit{binding: b, value: value})
			completed = append(completed, renderedUnit{binding: b, task: t})
		}
	}

	e.commitFrame(completed)

	// Next wave: the tail cut off by the time slice plus everything that
	// suspended, after at least one yield back to the host.
	next := append([]*ComponentBinding{}, wave[cut:]...)
	next = append(next, e.suspended...)
	e.suspended = nil
	if len(next) > 0 {
		e.state = StateScheduled
		e.backend.YieldToMain(func() { e.processWave(next, p) })
		return
	}
	e.state = StateIdle
}

// commitFrame runs the frame's synchronous commit span: every mutation
// effect (binding commits, reconciler edit scripts, insertion effects), then
// every layout effect. Passive effects defer to one background host
// callback, which guarantees at least one yield before they run.
func (e *Engine) commitFrame(completed []renderedUnit) {
	if len(completed) == 0 && len(e.mutation) == 0 && len(e.layout) == 0 {
		return
	}
	e.state = StateCommitting

	span := func() {
		mutation := e.mutation
		e.mutation = nil
		for _, eff := range mutation {
			eff.Commit(e)
		}
		layout := e.layout
		e.layout = nil
		for _, eff := range layout {
			eff.Commit(e)
		}
	}

	viewTransition := false
	for _, u := range completed {
		if u.task.opts.ViewTransition {
			viewTransition = true
			break
		}
	}
	if viewTransition {
		e.backend.StartViewTransition(span)
	} else {
		span()
	}

	if len(e.passive) > 0 && !e.passiveScheduled {
		e.passiveScheduled = true
		if err := e.backend.RequestCallback(host.PriorityBackground, e.flushPassive); err != nil {
			e.passiveScheduled = false
			e.raise(newCallbackRejectedError("", err))
		}
	}

	for _, u := range completed {
		u.task.complete(nil)
	}
}

// flushPassive drains the passive queue in a background turn, yielding to
// the host between batches when the time slice runs out.
func (e *Engine) flushPassive() {
	e.passiveScheduled = false
	queue := e.passive
	e.passive = nil
	e.runPassiveBatch(queue)
}

func (e *Engine) runPassiveBatch(queue []Effect) {
	for i, eff := range queue {
		if i > 0 && e.backend.ShouldYield() {
			rest := queue[i:]
			e.backend.YieldToMain(func() { e.runPassiveBatch(rest) })
			return
		}
		eff.Commit(e)
	}
}

// bindingCommit applies one completed render's output in the mutation phase.
type bindingCommit struct {
	binding *ComponentBinding
	value   any
}

// Commit implements Effect.
func (c *bindingCommit) Commit(e *Engine) {
	c.binding.commitRender(e, c.value)
}
