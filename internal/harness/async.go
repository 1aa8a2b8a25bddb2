package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/emonkak/barebind-sub006/internal/engine"
	"github.com/emonkak/barebind-sub006/internal/host"
)

// settleTimeout bounds how long an async run waits for the engine to go
// quiescent after a step.
const settleTimeout = 5 * time.Second

// RunAsync executes a scenario on the goroutine-backed host backend.
//
// All engine access is marshaled onto the worker goroutine through
// microtasks, and quiescence is detected by polling the backend, so the
// single-writer assumptions hold just as they do on the deterministic
// backend. Trace sequence numbers stay deterministic; wall-clock timing
// does not, so time-slice yields may split waves differently between runs.
func RunAsync(ctx context.Context, scenario *Scenario, opts ...engine.Option) (*Result, error) {
	backend := host.NewAsync()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- backend.Run(runCtx) }()
	defer func() {
		backend.Close()
		cancel()
		<-runDone
	}()

	r := newRunner(backend, tokenPrefix(scenario), opts...)
	r.do = func(fn func()) {
		done := make(chan struct{})
		backend.QueueMicrotask(func() {
			fn()
			close(done)
		})
		select {
		case <-done:
		case <-runCtx.Done():
		}
	}
	r.settle = func() error {
		deadline := time.Now().Add(settleTimeout)
		for backend.Pending() {
			if err := runCtx.Err(); err != nil {
				return err
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("engine did not settle within %v", settleTimeout)
			}
			time.Sleep(200 * time.Microsecond)
		}
		return nil
	}
	return r.run(scenario)
}
