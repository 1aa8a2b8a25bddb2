package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emonkak/barebind-sub006/internal/trace"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - verify one run only
}

// ReplayRunReport holds the replay verdict for a single run.
type ReplayRunReport struct {
	RunID      string   `json:"run_id"`
	Events     int      `json:"events"`
	Edits      int      `json:"edits"`
	FinalKeys  []string `json:"final_keys"`
	Consistent bool     `json:"consistent"`
	Error      string   `json:"error,omitempty"`
}

// ReplayReport holds the overall replay verdict.
type ReplayReport struct {
	Runs          []ReplayRunReport `json:"runs"`
	TotalRuns     int               `json:"total_runs"`
	AllConsistent bool              `json:"all_consistent"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay persisted edit scripts and verify consistency",
		Long: `Replay the edit events of persisted runs against a model sequence.

For every run, the command checks that sequence numbers are strictly
increasing and that the recorded edit script applies cleanly: no duplicate
inserts, no moves or removals of absent keys, no dangling anchors. The
final key order of the model is reported.

Exit codes:
  0 - All runs replay consistently
  1 - A run's trace is inconsistent
  2 - Command error (database not found, etc.)

Examples:
  barebind replay --db ./trace.db
  barebind replay --db ./trace.db --run list-reorder
  barebind replay --db ./trace.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the trace database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay a single run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := trace.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open trace database", err)
	}
	defer st.Close()

	var runIDs []string
	if opts.RunID != "" {
		runIDs = []string{opts.RunID}
	} else {
		runs, err := st.Runs(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		for _, r := range runs {
			runIDs = append(runIDs, r.ID)
		}
	}

	if len(runIDs) == 0 {
		if opts.Format == "json" {
			return writeJSON(cmd.OutOrStdout(), Response{Status: "ok", Data: ReplayReport{
				Runs:          []ReplayRunReport{},
				AllConsistent: true,
			}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No runs found in database.")
		return nil
	}

	report := ReplayReport{
		Runs:          make([]ReplayRunReport, 0, len(runIDs)),
		TotalRuns:     len(runIDs),
		AllConsistent: true,
	}
	for _, runID := range runIDs {
		rr, err := replayRun(ctx, st, runID)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", runID), err)
		}
		report.Runs = append(report.Runs, rr)
		if !rr.Consistent {
			report.AllConsistent = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, report)
	}
	return outputReplayText(cmd, report)
}

// replayRun verifies one run's trace: monotonic sequencing plus a clean
// edit-script replay.
func replayRun(ctx context.Context, st *trace.Store, runID string) (ReplayRunReport, error) {
	events, err := st.ReadRun(ctx, runID)
	if err != nil {
		return ReplayRunReport{}, err
	}

	rr := ReplayRunReport{
		RunID:      runID,
		Events:     len(events),
		Consistent: true,
		FinalKeys:  []string{},
	}
	for _, ev := range events {
		if ev.Op != "" {
			rr.Edits++
		}
	}

	if err := trace.CheckMonotonic(events); err != nil {
		rr.Consistent = false
		rr.Error = err.Error()
		return rr, nil
	}
	keys, err := trace.Replay(events)
	if err != nil {
		rr.Consistent = false
		rr.Error = err.Error()
		return rr, nil
	}
	rr.FinalKeys = keys
	return rr, nil
}

func outputReplayJSON(cmd *cobra.Command, report ReplayReport) error {
	response := Response{Status: "ok", Data: report}
	if !report.AllConsistent {
		response.Status = "error"
		response.Error = &ErrorDoc{
			Code:    ErrCodeDivergence,
			Message: "replay verification failed",
		}
	}
	if err := writeJSON(cmd.OutOrStdout(), response); err != nil {
		return err
	}
	if !report.AllConsistent {
		return NewExitError(ExitFailure, "replay verification failed")
	}
	return nil
}

func outputReplayText(cmd *cobra.Command, report ReplayReport) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", report.TotalRuns)

	for _, rr := range report.Runs {
		if rr.Consistent {
			fmt.Fprintf(w, "ok   %s  events=%d edits=%d keys=[%s]\n",
				rr.RunID, rr.Events, rr.Edits, strings.Join(rr.FinalKeys, " "))
		} else {
			fmt.Fprintf(w, "FAIL %s  %s\n", rr.RunID, rr.Error)
		}
	}

	if !report.AllConsistent {
		return NewExitError(ExitFailure, "replay verification failed")
	}
	fmt.Fprintln(w, "All runs replay consistently")
	return nil
}
