package host

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriority_StringRoundTrip(t *testing.T) {
	for _, p := range []Priority{PriorityBackground, PriorityUserVisible, PriorityUserBlocking} {
		parsed, err := ParsePriority(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	_, err := ParsePriority("urgent")
	assert.Error(t, err)
}

func TestDeterministic_RunsNothingUntilFlush(t *testing.T) {
	d := NewDeterministic()
	ran := false
	require.NoError(t, d.RequestCallback(PriorityUserVisible, func() { ran = true }))

	assert.False(t, ran)
	require.NoError(t, d.Flush())
	assert.True(t, ran)
}

func TestDeterministic_PriorityOrder(t *testing.T) {
	d := NewDeterministic()
	var order []string

	require.NoError(t, d.RequestCallback(PriorityBackground, func() { order = append(order, "bg") }))
	require.NoError(t, d.RequestCallback(PriorityUserBlocking, func() { order = append(order, "blocking") }))
	require.NoError(t, d.RequestCallback(PriorityUserVisible, func() { order = append(order, "visible") }))

	require.NoError(t, d.Flush())
	assert.Equal(t, []string{"blocking", "visible", "bg"}, order)
}

func TestDeterministic_FIFOWithinPriority(t *testing.T) {
	d := NewDeterministic()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		require.NoError(t, d.RequestCallback(PriorityUserVisible, func() { order = append(order, i) }))
	}
	require.NoError(t, d.Flush())
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestDeterministic_MicrotasksRunBeforeNextCallback(t *testing.T) {
	d := NewDeterministic()
	var order []string

	require.NoError(t, d.RequestCallback(PriorityUserVisible, func() {
		order = append(order, "cb1")
		d.QueueMicrotask(func() { order = append(order, "micro") })
	}))
	require.NoError(t, d.RequestCallback(PriorityUserVisible, func() {
		order = append(order, "cb2")
	}))

	require.NoError(t, d.Flush())
	assert.Equal(t, []string{"cb1", "micro", "cb2"}, order)
}

func TestDeterministic_YieldContinuationRunsOnLaterTurn(t *testing.T) {
	d := NewDeterministic()
	var resumedAtTurn int

	require.NoError(t, d.RequestCallback(PriorityUserVisible, func() {
		first := d.Turns()
		d.YieldToMain(func() { resumedAtTurn = d.Turns() - first })
	}))

	require.NoError(t, d.Flush())
	assert.GreaterOrEqual(t, resumedAtTurn, 1, "resume must run on a later host turn")
}

func TestDeterministic_YieldKeepsCallbackPriority(t *testing.T) {
	d := NewDeterministic()
	var observed Priority

	require.NoError(t, d.RequestCallback(PriorityUserBlocking, func() {
		d.YieldToMain(func() { observed = d.CurrentPriority() })
	}))

	require.NoError(t, d.Flush())
	assert.Equal(t, PriorityUserBlocking, observed)
}

func TestDeterministic_CurrentPriorityOutsideCallback(t *testing.T) {
	d := NewDeterministic()
	assert.Equal(t, DefaultPriority, d.CurrentPriority())
}

func TestDeterministic_FailCallbacks(t *testing.T) {
	d := NewDeterministic()
	boom := errors.New("rejected")
	d.FailCallbacks(boom)

	err := d.RequestCallback(PriorityUserVisible, func() { t.Fatal("must not run") })
	assert.ErrorIs(t, err, boom)

	d.FailCallbacks(nil)
	assert.NoError(t, d.RequestCallback(PriorityUserVisible, func() {}))
}

func TestDeterministic_StepBudgetCatchesUpdateLoops(t *testing.T) {
	d := NewDeterministic()
	var loop func()
	loop = func() {
		_ = d.RequestCallback(PriorityUserVisible, loop)
	}
	require.NoError(t, d.RequestCallback(PriorityUserVisible, loop))

	err := d.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step budget")
}

func TestDeterministic_ShouldYieldInterval(t *testing.T) {
	d := NewDeterministic()
	assert.False(t, d.ShouldYield(), "disabled by default")

	d.SetYieldInterval(2)
	assert.False(t, d.ShouldYield())
	assert.True(t, d.ShouldYield())
	assert.False(t, d.ShouldYield())
	assert.True(t, d.ShouldYield())
}

func TestDeterministic_ViewTransitionRunsInline(t *testing.T) {
	d := NewDeterministic()
	ran := false
	d.StartViewTransition(func() { ran = true })
	assert.True(t, ran)
	assert.Equal(t, 1, d.Transitions())
}
