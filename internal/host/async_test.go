package host

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsync_RunsSubmittedWork(t *testing.T) {
	a := NewAsync()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	var mu sync.Mutex
	var order []string
	record := func(s string) func() {
		return func() {
			mu.Lock()
			order = append(order, s)
			mu.Unlock()
		}
	}

	require.NoError(t, a.RequestCallback(PriorityUserVisible, record("visible")))
	require.NoError(t, a.RequestCallback(PriorityUserBlocking, record("blocking")))

	a.Close()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	// Both ran; blocking may overtake visible depending on when the worker
	// picked up the first item, so only membership is asserted.
	assert.ElementsMatch(t, []string{"visible", "blocking"}, order)
}

func TestAsync_RejectsAfterClose(t *testing.T) {
	a := NewAsync()
	a.Close()
	err := a.RequestCallback(PriorityUserVisible, func() {})
	assert.ErrorIs(t, err, ErrBackendClosed)
}

func TestAsync_ContextCancellationStopsRun(t *testing.T) {
	a := NewAsync()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestAsync_MicrotaskRunsBeforeQueuedCallback(t *testing.T) {
	a := NewAsync()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	var mu sync.Mutex
	var order []string
	ran := make(chan struct{})

	require.NoError(t, a.RequestCallback(PriorityUserVisible, func() {
		mu.Lock()
		order = append(order, "cb1")
		mu.Unlock()
		a.QueueMicrotask(func() {
			mu.Lock()
			order = append(order, "micro")
			mu.Unlock()
		})
		a.YieldToMain(func() {
			mu.Lock()
			order = append(order, "resume")
			mu.Unlock()
			close(ran)
		})
	}))

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("work did not complete")
	}
	a.Close()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"cb1", "micro", "resume"}, order)
}

func TestAsync_PendingTracksQueuedWork(t *testing.T) {
	a := NewAsync()
	assert.False(t, a.Pending())

	require.NoError(t, a.RequestCallback(PriorityUserVisible, func() {}))
	assert.True(t, a.Pending())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for a.Pending() {
		require.False(t, time.Now().After(deadline), "work never drained")
		time.Sleep(time.Millisecond)
	}

	a.Close()
	require.NoError(t, <-done)
	assert.False(t, a.Pending())
}
