package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// Scenarios mount a built-in component, drive it through a sequence of
// steps, and assert on the final tree and the recorded commit trace.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Component selects the built-in root component:
	// "echo", "counter", or "list".
	Component string `yaml:"component"`

	// Props configures the root component:
	//   echo:    text (string)
	//   counter: initial (int)
	//   list:    items ([]{key, value})
	Props PropsSpec `yaml:"props,omitempty"`

	// Steps drive the mounted component. Each step runs to quiescence
	// before the next one starts.
	Steps []Step `yaml:"steps,omitempty"`

	// Assertions validate the final tree and trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// TokenPrefix overrides the deterministic binding-token prefix.
	// Defaults to "run" for byte-identical golden traces.
	TokenPrefix string `yaml:"token_prefix,omitempty"`
}

// PropsSpec is the union of the built-in components' configuration.
type PropsSpec struct {
	Text    string     `yaml:"text,omitempty"`
	Initial int        `yaml:"initial,omitempty"`
	Items   []ItemSpec `yaml:"items,omitempty"`
}

// ItemSpec is one keyed entry of a list component.
type ItemSpec struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Step is one scenario action. Exactly one field group must be set.
type Step struct {
	// Dispatch feeds a delta into the counter component's reducer.
	Dispatch *DispatchStep `yaml:"dispatch,omitempty"`

	// SetList replaces the list component's entries.
	SetList *SetListStep `yaml:"set_list,omitempty"`

	// ForceUpdate schedules a re-render of the root binding.
	ForceUpdate *ForceUpdateStep `yaml:"force_update,omitempty"`

	// Unmount destroys the root binding.
	Unmount bool `yaml:"unmount,omitempty"`
}

// DispatchStep feeds the counter's reducer.
type DispatchStep struct {
	Delta int `yaml:"delta"`
}

// SetListStep replaces the list entries.
type SetListStep struct {
	Items []ItemSpec `yaml:"items"`
}

// ForceUpdateStep schedules a re-render.
type ForceUpdateStep struct {
	// Priority is "user-blocking", "user-visible", or "background".
	// Empty inherits the host's current priority.
	Priority string `yaml:"priority,omitempty"`

	// ViewTransition wraps the commit span in a view transition scope.
	ViewTransition bool `yaml:"view_transition,omitempty"`
}

// Assertion validates the final tree or the recorded trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "tree_equals": final tree text equals Text
	// - "trace_contains": an event matching the given fields exists
	// - "trace_order": the given kinds appear as a subsequence
	// - "edit_count": edit events with Op occur exactly Count times
	// - "replay_matches": replaying the edit script yields Keys
	Type string `yaml:"type"`

	// Text is the expected tree text (tree_equals).
	Text string `yaml:"text,omitempty"`

	// Kind/Op/Key/Priority/Phase select events (trace_contains).
	// Empty fields match anything.
	Kind     string `yaml:"kind,omitempty"`
	Op       string `yaml:"op,omitempty"`
	Key      string `yaml:"key,omitempty"`
	Priority string `yaml:"priority,omitempty"`
	Phase    string `yaml:"phase,omitempty"`

	// Kinds is the expected event-kind order (trace_order).
	Kinds []string `yaml:"kinds,omitempty"`

	// Count is the expected number of occurrences (edit_count).
	Count int `yaml:"count,omitempty"`

	// Keys is the expected final key order (replay_matches).
	Keys []string `yaml:"keys,omitempty"`
}

// Assertion type constants.
const (
	AssertTreeEquals    = "tree_equals"
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertEditCount     = "edit_count"
	AssertReplayMatches = "replay_matches"
)

// Built-in component kinds.
const (
	ComponentEcho    = "echo"
	ComponentCounter = "counter"
	ComponentList    = "list"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation
// (catches typos like "assertion:" vs "assertions:").
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and step/assertion coherence.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch s.Component {
	case ComponentEcho, ComponentCounter, ComponentList:
	case "":
		return fmt.Errorf("component is required")
	default:
		return fmt.Errorf("unknown component %q", s.Component)
	}

	for i, step := range s.Steps {
		set := 0
		if step.Dispatch != nil {
			set++
			if s.Component != ComponentCounter {
				return fmt.Errorf("step %d: dispatch requires the counter component", i)
			}
		}
		if step.SetList != nil {
			set++
			if s.Component != ComponentList {
				return fmt.Errorf("step %d: set_list requires the list component", i)
			}
		}
		if step.ForceUpdate != nil {
			set++
		}
		if step.Unmount {
			set++
		}
		if set != 1 {
			return fmt.Errorf("step %d: exactly one action per step, got %d", i, set)
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertTreeEquals, AssertTraceContains, AssertTraceOrder,
			AssertEditCount, AssertReplayMatches:
		default:
			return fmt.Errorf("assertion %d: unknown type %q", i, a.Type)
		}
	}
	return nil
}
