package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/emonkak/barebind-sub006/internal/trace"
)

// RunWithGolden executes a scenario and compares its canonical trace
// against a golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files are the source of truth for a scenario's commit trace: one
// canonical JSON object per event, in logical-clock order. Because the
// harness pins token generation and runs on the deterministic backend, the
// trace is byte-identical across runs and platforms.
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("run scenario %s: %v", scenario.Name, err)
	}

	out, err := trace.FormatEvents(result.Events)
	if err != nil {
		t.Fatalf("format trace for %s: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, []byte(out))

	return result
}
