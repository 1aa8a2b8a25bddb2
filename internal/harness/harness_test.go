package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emonkak/barebind-sub006/internal/engine"
)

func TestRun_EchoMountsText(t *testing.T) {
	result, err := Run(&Scenario{
		Name:      "echo",
		Component: ComponentEcho,
		Props:     PropsSpec{Text: "hello"},
	})
	require.NoError(t, err)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "hello", result.Tree)

	require.NotEmpty(t, result.Events)
	assert.Equal(t, engine.EventSchedule, result.Events[0].Kind)
	assert.Equal(t, "run-001", result.Events[0].Token)
}

func TestRun_ResumedClockContinuesSequence(t *testing.T) {
	result, err := Run(&Scenario{
		Name:      "echo",
		Component: ComponentEcho,
		Props:     PropsSpec{Text: "hello"},
	}, engine.WithClock(engine.NewClockAt(100)))
	require.NoError(t, err)

	require.NotEmpty(t, result.Events)
	assert.Equal(t, int64(101), result.Events[0].Seq)
	assert.Equal(t, int64(100+len(result.Events)), result.Events[len(result.Events)-1].Seq)
}

func TestRun_TokenPrefixOverride(t *testing.T) {
	result, err := Run(&Scenario{
		Name:        "echo",
		Component:   ComponentEcho,
		Props:       PropsSpec{Text: "x"},
		TokenPrefix: "trial",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Events)
	assert.Equal(t, "trial-001", result.Events[0].Token)
}

func TestRun_CounterAccumulatesDispatches(t *testing.T) {
	result, err := Run(&Scenario{
		Name:      "counter",
		Component: ComponentCounter,
		Props:     PropsSpec{Initial: 10},
		Steps: []Step{
			{Dispatch: &DispatchStep{Delta: 5}},
			{Dispatch: &DispatchStep{Delta: -2}},
		},
	})
	require.NoError(t, err)

	assert.True(t, result.Pass)
	assert.Equal(t, "13", result.Tree)
}

func TestRun_ListReplacesEntries(t *testing.T) {
	result, err := Run(&Scenario{
		Name:      "list",
		Component: ComponentList,
		Props: PropsSpec{Items: []ItemSpec{
			{Key: "a", Value: "1"},
			{Key: "b", Value: "2"},
		}},
		Steps: []Step{
			{SetList: &SetListStep{Items: []ItemSpec{
				{Key: "b", Value: "2"},
				{Key: "c", Value: "3"},
			}}},
		},
	})
	require.NoError(t, err)

	assert.True(t, result.Pass)
	assert.Equal(t, "23", result.Tree)

	removes := 0
	for _, ev := range result.Events {
		if ev.Kind == engine.EventEdit && ev.Op == "remove" {
			removes++
		}
	}
	assert.Equal(t, 1, removes)
}

func TestRun_ForceUpdateUsesRequestedPriority(t *testing.T) {
	result, err := Run(&Scenario{
		Name:      "echo",
		Component: ComponentEcho,
		Props:     PropsSpec{Text: "x"},
		Steps: []Step{
			{ForceUpdate: &ForceUpdateStep{Priority: "user-blocking"}},
		},
	})
	require.NoError(t, err)
	require.True(t, result.Pass)

	found := false
	for _, ev := range result.Events {
		if ev.Kind == engine.EventSchedule && ev.Priority == "user-blocking" {
			found = true
		}
	}
	assert.True(t, found, "no user-blocking schedule event in %v", result.Events)
}

func TestRun_ForceUpdateRejectsUnknownPriority(t *testing.T) {
	_, err := Run(&Scenario{
		Name:      "echo",
		Component: ComponentEcho,
		Steps: []Step{
			{ForceUpdate: &ForceUpdateStep{Priority: "urgent"}},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 0")
}

func TestRun_UnmountClearsTree(t *testing.T) {
	result, err := Run(&Scenario{
		Name:      "list",
		Component: ComponentList,
		Props: PropsSpec{Items: []ItemSpec{
			{Key: "a", Value: "1"},
		}},
		Steps: []Step{
			{Unmount: true},
		},
	})
	require.NoError(t, err)

	assert.True(t, result.Pass)
	assert.Equal(t, "", result.Tree)

	found := false
	for _, ev := range result.Events {
		if ev.Kind == engine.EventUnmount {
			found = true
		}
	}
	assert.True(t, found, "no unmount event recorded")
}

func TestRun_DispatchWithoutCounterFails(t *testing.T) {
	_, err := Run(&Scenario{
		Name:      "echo",
		Component: ComponentEcho,
		Steps: []Step{
			{Dispatch: &DispatchStep{Delta: 1}},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "counter not mounted")
}

func TestRun_FailingAssertionFailsTheResult(t *testing.T) {
	result, err := Run(&Scenario{
		Name:      "echo",
		Component: ComponentEcho,
		Props:     PropsSpec{Text: "hello"},
		Assertions: []Assertion{
			{Type: AssertTreeEquals, Text: "goodbye"},
			{Type: AssertTraceContains, Kind: string(engine.EventRenderComplete)},
		},
	})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertion 0 (tree_equals)")
}

func TestRun_SnapshotShowsMarkers(t *testing.T) {
	result, err := Run(&Scenario{
		Name:      "list",
		Component: ComponentList,
		Props: PropsSpec{Items: []ItemSpec{
			{Key: "a", Value: "1"},
		}},
	})
	require.NoError(t, err)

	assert.Contains(t, result.Snapshot, "list")
	assert.Contains(t, result.Snapshot, "item:a")
}
