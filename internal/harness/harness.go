package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/emonkak/barebind-sub006/internal/engine"
	"github.com/emonkak/barebind-sub006/internal/host"
	"github.com/emonkak/barebind-sub006/internal/testutil"
	"github.com/emonkak/barebind-sub006/internal/trace"
	"github.com/emonkak/barebind-sub006/internal/vtree"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success: all assertions held and no
	// engine error surfaced.
	Pass bool

	// Tree is the final text form of the document.
	Tree string

	// Snapshot is the final structural form of the document.
	Snapshot string

	// Events is the full commit trace of the run.
	Events []engine.Event

	// Errors contains assertion and engine error messages. Empty if Pass.
	Errors []string
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// Runner executes one scenario against a fresh engine, in-memory tree, and
// host backend.
//
// The backend is pluggable: NewRunner wires the single-timeline
// deterministic pump, RunAsync the goroutine worker. do marshals a closure
// onto the engine's timeline and settle waits for quiescence; on the
// deterministic backend both are trivial.
type Runner struct {
	backend  host.Backend
	doc      *vtree.Document
	engine   *engine.Engine
	recorder *trace.Recorder
	logger   *slog.Logger

	do     func(fn func())
	settle func() error

	root       *engine.ComponentBinding
	dispatch   func(int)                 // counter reducer, when mounted
	setEntries func([]engine.KeyedEntry) // list setter, when mounted
	engineErrs []string
}

// NewRunner creates a runner with deterministic helpers: sequential binding
// tokens and the single-timeline backend, so two runs of the same scenario
// produce byte-identical traces.
func NewRunner(tokenPrefix string, opts ...engine.Option) *Runner {
	backend := host.NewDeterministic()
	r := newRunner(backend, tokenPrefix, opts...)
	r.do = func(fn func()) { fn() }
	r.settle = backend.Flush
	return r
}

func newRunner(backend host.Backend, tokenPrefix string, extra ...engine.Option) *Runner {
	r := &Runner{
		backend:  backend,
		doc:      vtree.NewDocument(),
		recorder: trace.NewRecorder(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	opts := []engine.Option{
		engine.WithLeafResolver(TextResolver{}),
		engine.WithTracer(r.recorder),
		engine.WithTokenGenerator(testutil.NewSequenceTokenGenerator(tokenPrefix)),
		engine.WithLogger(r.logger),
		engine.WithErrorHandler(func(err error) {
			r.engineErrs = append(r.engineErrs, err.Error())
		}),
	}
	r.engine = engine.New(r.backend, append(opts, extra...)...)
	return r
}

// Engine exposes the underlying engine, for tests that drive it directly.
func (r *Runner) Engine() *engine.Engine { return r.engine }

// Document exposes the in-memory tree.
func (r *Runner) Document() *vtree.Document { return r.doc }

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Build and mount the scenario's root component
//  2. Execute each step, flushing the backend to quiescence after it
//  3. Evaluate assertions against the final tree and recorded trace
//
// Extra engine options layer on top of the deterministic defaults, for
// callers resuming the trace clock to append to a stored run.
func Run(scenario *Scenario, opts ...engine.Option) (*Result, error) {
	return NewRunner(tokenPrefix(scenario), opts...).run(scenario)
}

func tokenPrefix(scenario *Scenario) string {
	if scenario.TokenPrefix != "" {
		return scenario.TokenPrefix
	}
	return "run"
}

func (r *Runner) run(scenario *Scenario) (*Result, error) {
	component, props, err := r.buildComponent(scenario)
	if err != nil {
		return nil, err
	}

	var mountErr error
	r.do(func() {
		r.root, mountErr = r.engine.Mount(component, props, engine.Part{
			Tree:      r.doc,
			Container: r.doc.Root(),
		})
	})
	if mountErr != nil {
		return nil, fmt.Errorf("mount %s: %w", scenario.Component, mountErr)
	}
	if err := r.settle(); err != nil {
		return nil, fmt.Errorf("initial flush: %w", err)
	}

	for i, step := range scenario.Steps {
		var stepErr error
		r.do(func() { stepErr = r.executeStep(step) })
		if stepErr != nil {
			return nil, fmt.Errorf("step %d: %w", i, stepErr)
		}
		if err := r.settle(); err != nil {
			return nil, fmt.Errorf("step %d: flush: %w", i, err)
		}
	}

	result := &Result{
		Pass:     true,
		Tree:     r.doc.Text(),
		Snapshot: r.doc.Snapshot(),
		Events:   r.recorder.Events(),
	}
	for _, msg := range r.engineErrs {
		result.AddError("engine error: " + msg)
	}
	for _, failure := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(failure)
	}
	return result, nil
}

// buildComponent constructs the scenario's root component and its props.
func (r *Runner) buildComponent(scenario *Scenario) (engine.Component, any, error) {
	switch scenario.Component {
	case ComponentEcho:
		return func(rc *engine.RenderContext) (any, error) {
			return rc.Props().(string), nil
		}, scenario.Props.Text, nil

	case ComponentCounter:
		return func(rc *engine.RenderContext) (any, error) {
			count, dispatch := engine.UseReducer(rc,
				func(s, delta int) int { return s + delta },
				rc.Props().(int))
			r.dispatch = dispatch
			return strconv.Itoa(count), nil
		}, scenario.Props.Initial, nil

	case ComponentList:
		return func(rc *engine.RenderContext) (any, error) {
			entries, set := engine.UseState(rc, rc.Props().([]engine.KeyedEntry))
			r.setEntries = set
			return engine.KeyedList{Entries: entries}, nil
		}, toEntries(scenario.Props.Items), nil

	default:
		return nil, nil, fmt.Errorf("unknown component %q", scenario.Component)
	}
}

// executeStep applies one scenario step.
func (r *Runner) executeStep(step Step) error {
	switch {
	case step.Dispatch != nil:
		if r.dispatch == nil {
			return fmt.Errorf("dispatch: counter not mounted")
		}
		r.dispatch(step.Dispatch.Delta)
		return nil

	case step.SetList != nil:
		if r.setEntries == nil {
			return fmt.Errorf("set_list: list not mounted")
		}
		r.setEntries(toEntries(step.SetList.Items))
		return nil

	case step.ForceUpdate != nil:
		opts := engine.UpdateOptions{ViewTransition: step.ForceUpdate.ViewTransition}
		if step.ForceUpdate.Priority != "" {
			p, err := host.ParsePriority(step.ForceUpdate.Priority)
			if err != nil {
				return fmt.Errorf("force_update: %w", err)
			}
			opts.Priority = p
		}
		r.root.ForceUpdate(r.engine, opts)
		return nil

	case step.Unmount:
		r.engine.Unmount(r.root)
		return nil

	default:
		return fmt.Errorf("empty step")
	}
}

func toEntries(items []ItemSpec) []engine.KeyedEntry {
	entries := make([]engine.KeyedEntry, len(items))
	for i, item := range items {
		entries[i] = engine.KeyedEntry{Key: item.Key, Value: item.Value}
	}
	return entries
}
