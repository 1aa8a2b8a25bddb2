package harness

import (
	"fmt"
	"slices"

	"github.com/emonkak/barebind-sub006/internal/engine"
	"github.com/emonkak/barebind-sub006/internal/trace"
)

// EvaluateAssertions checks every assertion against the result and returns
// one failure message per violated assertion. An empty return means all
// assertions held.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if msg := evaluateAssertion(result, a); msg != "" {
			failures = append(failures, fmt.Sprintf("assertion %d (%s): %s", i, a.Type, msg))
		}
	}
	return failures
}

func evaluateAssertion(result *Result, a Assertion) string {
	switch a.Type {
	case AssertTreeEquals:
		if result.Tree != a.Text {
			return fmt.Sprintf("tree text %q, expected %q", result.Tree, a.Text)
		}

	case AssertTraceContains:
		for _, ev := range result.Events {
			if eventMatches(ev, a) {
				return ""
			}
		}
		return fmt.Sprintf("no event matching kind=%q op=%q key=%q priority=%q phase=%q",
			a.Kind, a.Op, a.Key, a.Priority, a.Phase)

	case AssertTraceOrder:
		at := 0
		for _, ev := range result.Events {
			if at < len(a.Kinds) && string(ev.Kind) == a.Kinds[at] {
				at++
			}
		}
		if at != len(a.Kinds) {
			return fmt.Sprintf("kinds %v not found in order; matched %d of %d",
				a.Kinds, at, len(a.Kinds))
		}

	case AssertEditCount:
		count := 0
		for _, ev := range result.Events {
			if ev.Kind == engine.EventEdit && (a.Op == "" || ev.Op == a.Op) {
				count++
			}
		}
		if count != a.Count {
			return fmt.Sprintf("%d edits with op %q, expected %d", count, a.Op, a.Count)
		}

	case AssertReplayMatches:
		keys, err := trace.Replay(result.Events)
		if err != nil {
			return fmt.Sprintf("replay failed: %v", err)
		}
		want := a.Keys
		if want == nil {
			want = []string{}
		}
		if !slices.Equal(keys, want) {
			return fmt.Sprintf("replayed keys %v, expected %v", keys, want)
		}
	}
	return ""
}

// eventMatches reports whether every non-empty selector field of the
// assertion equals the event's field.
func eventMatches(ev engine.Event, a Assertion) bool {
	if a.Kind != "" && string(ev.Kind) != a.Kind {
		return false
	}
	if a.Op != "" && ev.Op != a.Op {
		return false
	}
	if a.Key != "" && ev.Key != a.Key {
		return false
	}
	if a.Priority != "" && ev.Priority != a.Priority {
		return false
	}
	if a.Phase != "" && ev.Phase != a.Phase {
		return false
	}
	return true
}
