package engine

import "sync/atomic"

// Clock is a monotonic logical clock for trace event ordering.
//
// Every trace event is stamped with a strictly increasing seq number, so the
// relative order of renders, edits, and effect commits is explicit and
// replayable without wall-clock race conditions.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// though the engine's single-timeline design means only one goroutine
// normally calls Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0; the first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming from a known position, used when
// appending to an existing trace.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
