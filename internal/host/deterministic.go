package host

import "fmt"

// DefaultStepBudget bounds how many callbacks one Flush may run before it
// gives up. A correct engine settles long before this; exceeding the budget
// almost always means an update loop (a render that unconditionally
// schedules itself).
const DefaultStepBudget = 10_000

// Deterministic is a single-timeline Backend for tests and the CLI.
//
// Nothing runs until Flush (or Step) is called; then all queued work runs on
// the caller's goroutine. Microtasks always run before the next callback;
// callbacks run in priority order, FIFO within a priority; yield
// continuations re-enter the queue at the priority of the callback that
// yielded.
//
// Not safe for concurrent use. That is the point.
type Deterministic struct {
	microtasks []func()
	lanes      [PriorityUserBlocking + 1][]func()

	current     Priority
	inCallback  bool
	turns       int
	transitions int
	yieldEvery  int // ShouldYield() true after this many checks per callback; 0 = never
	yieldChecks int

	callbackErr error // injected RequestCallback rejection
	stepBudget  int
}

// NewDeterministic creates an idle deterministic backend.
func NewDeterministic() *Deterministic {
	return &Deterministic{
		current:    DefaultPriority,
		stepBudget: DefaultStepBudget,
	}
}

// QueueMicrotask implements Backend.
func (d *Deterministic) QueueMicrotask(fn func()) {
	d.microtasks = append(d.microtasks, fn)
}

// RequestCallback implements Backend.
func (d *Deterministic) RequestCallback(priority Priority, work func()) error {
	if d.callbackErr != nil {
		return d.callbackErr
	}
	if !priority.Valid() {
		return fmt.Errorf("invalid priority %d", int(priority))
	}
	d.lanes[priority] = append(d.lanes[priority], work)
	return nil
}

// YieldToMain implements Backend. The continuation is queued at the priority
// of the currently running callback, behind work already waiting there.
func (d *Deterministic) YieldToMain(resume func()) {
	d.lanes[d.current] = append(d.lanes[d.current], resume)
}

// ShouldYield implements Backend. With a yield interval configured (see
// SetYieldInterval), every n-th check within one callback reports true.
func (d *Deterministic) ShouldYield() bool {
	if d.yieldEvery <= 0 {
		return false
	}
	d.yieldChecks++
	return d.yieldChecks%d.yieldEvery == 0
}

// CurrentPriority implements Backend.
func (d *Deterministic) CurrentPriority() Priority {
	return d.current
}

// StartViewTransition implements Backend. The mock host has no visual
// transitions; update runs directly and the call is counted for tests.
func (d *Deterministic) StartViewTransition(update func()) {
	d.transitions++
	update()
}

// SetYieldInterval makes ShouldYield report true on every n-th check within
// a callback. Zero disables time-slicing.
func (d *Deterministic) SetYieldInterval(n int) { d.yieldEvery = n }

// FailCallbacks makes every subsequent RequestCallback return err until
// called again with nil.
func (d *Deterministic) FailCallbacks(err error) { d.callbackErr = err }

// Turns returns how many callbacks have run. A strictly larger turn count
// between two observations proves at least one yield back to the host.
func (d *Deterministic) Turns() int { return d.turns }

// Transitions returns how many view transition scopes were opened.
func (d *Deterministic) Transitions() int { return d.transitions }

// Pending reports whether any work (microtask or callback) is queued.
func (d *Deterministic) Pending() bool {
	if len(d.microtasks) > 0 {
		return true
	}
	for _, lane := range d.lanes {
		if len(lane) > 0 {
			return true
		}
	}
	return false
}

// Step drains pending microtasks, then runs the single highest-priority
// callback, then drains microtasks it queued. Returns false if nothing ran.
func (d *Deterministic) Step() bool {
	d.drainMicrotasks()
	for p := PriorityUserBlocking; p >= PriorityBackground; p-- {
		lane := d.lanes[p]
		if len(lane) == 0 {
			continue
		}
		work := lane[0]
		lane[0] = nil
		d.lanes[p] = lane[1:]

		d.turns++
		d.current = p
		d.inCallback = true
		d.yieldChecks = 0
		work()
		d.inCallback = false
		d.current = DefaultPriority

		d.drainMicrotasks()
		return true
	}
	return false
}

// Flush runs queued work to quiescence. Returns an error if the step budget
// is exceeded, which indicates an update loop rather than a slow test.
func (d *Deterministic) Flush() error {
	for steps := 0; ; steps++ {
		if steps >= d.stepBudget {
			return fmt.Errorf("host: step budget exceeded after %d callbacks (update loop?)", steps)
		}
		if !d.Step() {
			// Step drains microtasks before looking for callbacks, so a
			// false return means both queues are empty.
			return nil
		}
	}
}

func (d *Deterministic) drainMicrotasks() {
	// Microtasks may queue further microtasks; drain until empty.
	for len(d.microtasks) > 0 {
		fn := d.microtasks[0]
		d.microtasks[0] = nil
		d.microtasks = d.microtasks[1:]
		fn()
	}
}
