package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emonkak/barebind-sub006/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // show one run's events instead of the run list
}

// RunSummary is the JSON form of one stored run.
type RunSummary struct {
	ID       string `json:"id"`
	Scenario string `json:"scenario"`
	Events   int    `json:"events"`
	LastSeq  int64  `json:"last_seq"`
}

// TraceListReport is the payload of trace without --run.
type TraceListReport struct {
	Runs []RunSummary `json:"runs"`
}

// TraceRunReport is the payload of trace --run.
type TraceRunReport struct {
	RunID  string   `json:"run_id"`
	Events int      `json:"events"`
	Trace  []string `json:"trace"` // canonical JSON, one object per entry
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect persisted commit traces",
		Long: `Inspect a trace database written by run --db.

Without --run, lists all stored runs with their event counts. With --run,
prints the run's full commit trace in canonical JSON, one event per line,
in logical-clock order.

Examples:
  barebind trace --db ./trace.db
  barebind trace --db ./trace.db --run list-reorder
  barebind trace --db ./trace.db --run list-reorder --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the trace database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show a single run's events")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := trace.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open trace database", err)
	}
	defer st.Close()

	if opts.RunID != "" {
		return showRun(ctx, st, opts, cmd)
	}
	return listRuns(ctx, st, opts, cmd)
}

func listRuns(ctx context.Context, st *trace.Store, opts *TraceOptions, cmd *cobra.Command) error {
	runs, err := st.Runs(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	report := TraceListReport{Runs: make([]RunSummary, 0, len(runs))}
	for _, r := range runs {
		report.Runs = append(report.Runs, RunSummary{
			ID:       r.ID,
			Scenario: r.Scenario,
			Events:   r.Events,
			LastSeq:  r.LastSeq,
		})
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), Response{Status: "ok", Data: report})
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}
	for _, r := range report.Runs {
		fmt.Fprintf(w, "%s  scenario=%s  events=%d  last_seq=%d\n", r.ID, r.Scenario, r.Events, r.LastSeq)
	}
	return nil
}

func showRun(ctx context.Context, st *trace.Store, opts *TraceOptions, cmd *cobra.Command) error {
	events, err := st.ReadRun(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	if len(events) == 0 {
		formatter := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Failure(ErrCodeNotFound, fmt.Sprintf("no events for run %q", opts.RunID), nil)
	}

	if opts.Format == "json" {
		lines := make([]string, 0, len(events))
		for _, ev := range events {
			line, err := trace.MarshalCanonical(ev)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to marshal event", err)
			}
			lines = append(lines, string(line))
		}
		return writeJSON(cmd.OutOrStdout(), Response{Status: "ok", Data: TraceRunReport{
			RunID:  opts.RunID,
			Events: len(events),
			Trace:  lines,
		}})
	}

	out, err := trace.FormatEvents(events)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to format trace", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
