package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/emonkak/barebind-sub006/internal/engine"
	"github.com/emonkak/barebind-sub006/internal/harness"
	"github.com/emonkak/barebind-sub006/internal/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	RunID    string
	Async    bool
}

// RunReport is the JSON payload of the run command.
type RunReport struct {
	Scenario string   `json:"scenario"`
	Pass     bool     `json:"pass"`
	Tree     string   `json:"tree"`
	Snapshot string   `json:"snapshot"`
	Events   int      `json:"events"`
	Errors   []string `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Execute one scenario and print the final tree and trace",
		Long: `Execute a scenario file against a fresh engine and in-memory tree.

The scenario runs on the deterministic single-timeline backend by default,
so the commit trace is byte-identical across runs. With --async it runs on
the goroutine-backed backend instead. With --db the trace is persisted to a
SQLite store for later inspection with trace and replay.

Exit codes:
  0 - Scenario passed
  1 - Assertions failed
  2 - Command error (bad scenario, database error)

Examples:
  barebind run ./scenarios/list-reorder.yaml
  barebind run ./scenarios/list-reorder.yaml --db ./trace.db
  barebind run ./scenarios/list-reorder.yaml --async --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "persist the trace to this SQLite database")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run identifier for the persisted trace (defaults to the scenario name)")
	cmd.Flags().BoolVar(&opts.Async, "async", false, "execute on the goroutine-backed host backend")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	slog.Debug("scenario loaded", "name", scenario.Name, "component", scenario.Component)

	var engineOpts []engine.Option
	if opts.Database != "" {
		startSeq, err := storedLastSeq(cmd.Context(), opts, scenario)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open trace store", err)
		}
		if startSeq > 0 {
			slog.Debug("resuming trace clock", "run", traceRunID(opts, scenario), "after", startSeq)
			engineOpts = append(engineOpts, engine.WithClock(engine.NewClockAt(startSeq)))
		}
	}

	var result *harness.Result
	if opts.Async {
		result, err = harness.RunAsync(cmd.Context(), scenario, engineOpts...)
	} else {
		result, err = harness.Run(scenario, engineOpts...)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}

	if opts.Database != "" {
		if err := persistTrace(cmd.Context(), opts, scenario, result); err != nil {
			return WrapExitError(ExitCommandError, "failed to persist trace", err)
		}
		slog.Debug("trace persisted", "db", opts.Database)
	}

	report := RunReport{
		Scenario: scenario.Name,
		Pass:     result.Pass,
		Tree:     result.Tree,
		Snapshot: result.Snapshot,
		Events:   len(result.Events),
		Errors:   result.Errors,
	}

	if opts.Format == "json" {
		status := "ok"
		var errDoc *ErrorDoc
		if !result.Pass {
			status = "error"
			errDoc = &ErrorDoc{Code: ErrCodeTestFailed, Message: "scenario failed", Details: result.Errors}
		}
		if err := writeJSON(cmd.OutOrStdout(), Response{Status: status, Data: report, Error: errDoc}); err != nil {
			return err
		}
		if !result.Pass {
			return NewExitError(ExitFailure, "scenario failed")
		}
		return nil
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Scenario: %s\n", scenario.Name)
	fmt.Fprintf(w, "Tree:     %q\n", result.Tree)
	fmt.Fprintf(w, "Snapshot: %s\n", result.Snapshot)
	fmt.Fprintf(w, "Events:   %d\n", len(result.Events))
	if opts.Verbose {
		out, err := trace.FormatEvents(result.Events)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to format trace", err)
		}
		fmt.Fprintln(w, "Trace:")
		fmt.Fprint(w, out)
	}
	if !result.Pass {
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		return NewExitError(ExitFailure, "scenario failed")
	}
	fmt.Fprintln(w, "PASS")
	return nil
}

// traceRunID resolves the identifier a run is stored under.
func traceRunID(opts *RunOptions, scenario *harness.Scenario) string {
	if opts.RunID != "" {
		return opts.RunID
	}
	return scenario.Name
}

// storedLastSeq reports the highest sequence number already recorded for
// the run, so an append resumes the trace clock instead of colliding with
// the stored events.
func storedLastSeq(ctx context.Context, opts *RunOptions, scenario *harness.Scenario) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := trace.Open(opts.Database)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing trace store: %v\n", closeErr)
		}
	}()
	return st.LastSeq(ctx, traceRunID(opts, scenario))
}

// persistTrace writes the run's events into a SQLite trace store.
func persistTrace(ctx context.Context, opts *RunOptions, scenario *harness.Scenario, result *harness.Result) error {
	if ctx == nil {
		ctx = context.Background()
	}
	runID := traceRunID(opts, scenario)

	st, err := trace.Open(opts.Database)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing trace store: %v\n", closeErr)
		}
	}()

	if err := st.WriteRun(ctx, runID, scenario.Name); err != nil {
		return err
	}
	return st.WriteEvents(ctx, runID, result.Events)
}
