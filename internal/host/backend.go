package host

import "fmt"

// Priority is the closed set of scheduling classes for update work.
// Higher values are serviced first.
type Priority int

const (
	// PriorityBackground is for work invisible to the user (passive
	// effects, deferred value re-renders).
	PriorityBackground Priority = iota + 1
	// PriorityUserVisible is for updates the user will see but is not
	// actively waiting on. This is the default render priority.
	PriorityUserVisible
	// PriorityUserBlocking is for updates in the critical path of a user
	// interaction.
	PriorityUserBlocking
)

// DefaultPriority is the priority assumed when no callback is running and
// no explicit priority was requested.
const DefaultPriority = PriorityUserVisible

// String returns the hyphenated priority name.
func (p Priority) String() string {
	switch p {
	case PriorityBackground:
		return "background"
	case PriorityUserVisible:
		return "user-visible"
	case PriorityUserBlocking:
		return "user-blocking"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Valid reports whether p is one of the three defined priorities.
func (p Priority) Valid() bool {
	return p >= PriorityBackground && p <= PriorityUserBlocking
}

// ParsePriority parses the hyphenated form produced by String.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "background":
		return PriorityBackground, nil
	case "user-visible":
		return PriorityUserVisible, nil
	case "user-blocking":
		return PriorityUserBlocking, nil
	default:
		return 0, fmt.Errorf("invalid priority %q: must be user-blocking, user-visible, or background", s)
	}
}

// Backend is the scheduling surface a host environment provides.
//
// All primitives are continuation passing and must invoke their work on the
// host's single update timeline. A backend that runs callbacks on multiple
// goroutines in parallel must provide its own mutual exclusion; the engine
// assumes single-writer access to its shared sets.
type Backend interface {
	// QueueMicrotask runs fn before the next callback, after the current
	// unit of work returns. This is the engine's coalescing point for
	// dispatches issued within one unit of work.
	QueueMicrotask(fn func())

	// RequestCallback asks the host to invoke work at the given priority.
	// A synchronous error means the host rejected the request and work
	// will never run.
	RequestCallback(priority Priority, work func()) error

	// YieldToMain hands control back to the host and asks it to invoke
	// resume on a later turn, at the priority of the current callback.
	YieldToMain(resume func())

	// ShouldYield reports whether the current callback has exhausted its
	// time slice and should yield before taking more work.
	ShouldYield() bool

	// CurrentPriority returns the priority of the callback being run, or
	// DefaultPriority outside any callback.
	CurrentPriority() Priority

	// StartViewTransition runs update inside the host's visual transition
	// scope, if it has one. Hosts without transitions run update directly.
	StartViewTransition(update func())
}
