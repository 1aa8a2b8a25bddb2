package trace

import (
	"fmt"
	"slices"

	"github.com/emonkak/barebind-sub006/internal/engine"
)

// Replay re-applies the edit events of a recorded run to a model key
// sequence and returns the final key order.
//
// Every edit is validated against the model as it is applied: inserting a
// key that is already present, moving or removing an absent key, or
// anchoring on an absent key all fail. A trace that replays cleanly proves
// the recorded edit script is internally consistent; comparing the result
// against an expected sequence proves it produced the right order.
func Replay(events []engine.Event) ([]string, error) {
	model := []string{}

	indexOf := func(key string) int {
		return slices.Index(model, key)
	}
	insertBefore := func(key, anchor string) error {
		at := len(model)
		if anchor != "" {
			at = indexOf(anchor)
			if at < 0 {
				return fmt.Errorf("anchor %q not present", anchor)
			}
		}
		model = slices.Insert(model, at, key)
		return nil
	}

	for _, ev := range events {
		if ev.Kind != engine.EventEdit {
			continue
		}
		switch ev.Op {
		case "insert":
			if indexOf(ev.Key) >= 0 {
				return nil, fmt.Errorf("replay seq %d: insert of duplicate key %q", ev.Seq, ev.Key)
			}
			if err := insertBefore(ev.Key, ev.Detail); err != nil {
				return nil, fmt.Errorf("replay seq %d: insert %q: %w", ev.Seq, ev.Key, err)
			}
		case "move":
			at := indexOf(ev.Key)
			if at < 0 {
				return nil, fmt.Errorf("replay seq %d: move of absent key %q", ev.Seq, ev.Key)
			}
			model = slices.Delete(model, at, at+1)
			if err := insertBefore(ev.Key, ev.Detail); err != nil {
				return nil, fmt.Errorf("replay seq %d: move %q: %w", ev.Seq, ev.Key, err)
			}
		case "remove":
			at := indexOf(ev.Key)
			if at < 0 {
				return nil, fmt.Errorf("replay seq %d: remove of absent key %q", ev.Seq, ev.Key)
			}
			model = slices.Delete(model, at, at+1)
		case "update":
			if indexOf(ev.Key) < 0 {
				return nil, fmt.Errorf("replay seq %d: update of absent key %q", ev.Seq, ev.Key)
			}
		default:
			return nil, fmt.Errorf("replay seq %d: unknown edit op %q", ev.Seq, ev.Op)
		}
	}
	return model, nil
}

// CheckMonotonic verifies that event seq values are strictly increasing,
// the core ordering invariant of a recorded run.
func CheckMonotonic(events []engine.Event) error {
	var last int64
	for i, ev := range events {
		if ev.Seq <= last {
			return fmt.Errorf("event %d: seq %d not greater than predecessor %d", i, ev.Seq, last)
		}
		last = ev.Seq
	}
	return nil
}
