package cli

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"github.com/spf13/cobra"

	"github.com/emonkak/barebind-sub006/internal/harness"
)

//go:embed scenario_schema.cue
var scenarioSchema []byte

// FileValidation holds the validation outcome for one scenario file.
type FileValidation struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidateReport holds the overall validation outcome.
type ValidateReport struct {
	Files   []FileValidation `json:"files"`
	Valid   int              `json:"valid"`
	Invalid int              `json:"invalid"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>...",
		Short: "Validate scenario files against the schema",
		Long: `Validate scenario YAML files without executing them.

Each file is unified with the embedded CUE scenario schema, which rejects
unknown fields, wrong types, and out-of-range enum values, and then run
through the harness loader for structural checks the schema cannot express
(exactly one action per step, step/component coherence).

Exit codes:
  0 - All files valid
  1 - One or more files invalid
  2 - Command error (unreadable file)

Examples:
  barebind validate ./scenarios/list-reorder.yaml
  barebind validate ./scenarios/*.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := &Formatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ctx := cuecontext.New()
	schema := ctx.CompileBytes(scenarioSchema, cue.Filename("scenario_schema.cue"))
	if err := schema.Err(); err != nil {
		return WrapExitError(ExitCommandError, "failed to compile scenario schema", err)
	}
	scenarioDef := schema.LookupPath(cue.ParsePath("#Scenario"))
	if err := scenarioDef.Err(); err != nil {
		return WrapExitError(ExitCommandError, "scenario schema has no #Scenario definition", err)
	}

	report := ValidateReport{Files: make([]FileValidation, 0, len(files))}
	for _, file := range files {
		formatter.Diag("validating %s", file)
		fv, err := validateFile(ctx, scenarioDef, file)
		if err != nil {
			return err
		}
		report.Files = append(report.Files, fv)
		if fv.Valid {
			report.Valid++
		} else {
			report.Invalid++
		}
	}

	if opts.Format == "json" {
		response := Response{Status: "ok", Data: report}
		if report.Invalid > 0 {
			response.Status = "error"
			response.Error = &ErrorDoc{
				Code:    ErrCodeBadScenario,
				Message: fmt.Sprintf("%d file(s) invalid", report.Invalid),
			}
		}
		if err := writeJSON(cmd.OutOrStdout(), response); err != nil {
			return err
		}
		if report.Invalid > 0 {
			return NewExitError(ExitFailure, fmt.Sprintf("%d file(s) invalid", report.Invalid))
		}
		return nil
	}

	w := cmd.OutOrStdout()
	for _, fv := range report.Files {
		if fv.Valid {
			fmt.Fprintf(w, "ok   %s\n", fv.File)
			continue
		}
		fmt.Fprintf(w, "FAIL %s\n", fv.File)
		for _, e := range fv.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	if report.Invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d file(s) invalid", report.Invalid))
	}
	return nil
}

// validateFile checks one scenario file against the CUE schema and then the
// harness loader. Unreadable files are command errors; invalid content is a
// per-file validation failure.
func validateFile(ctx *cue.Context, scenarioDef cue.Value, file string) (FileValidation, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return FileValidation{}, WrapExitError(ExitCommandError, fmt.Sprintf("failed to read %s", file), err)
	}

	fv := FileValidation{File: file, Valid: true}
	fail := func(msg string) {
		fv.Valid = false
		fv.Errors = append(fv.Errors, msg)
	}

	doc, err := cueyaml.Extract(file, data)
	if err != nil {
		fail(fmt.Sprintf("yaml: %v", err))
		return fv, nil
	}
	value := ctx.BuildFile(doc)
	if err := value.Err(); err != nil {
		fail(fmt.Sprintf("yaml: %v", err))
		return fv, nil
	}

	unified := scenarioDef.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		for _, e := range cueerrors.Errors(err) {
			fail(fmt.Sprintf("schema: %v", e))
		}
		return fv, nil
	}

	// Structural checks the schema cannot express.
	if _, err := harness.ParseScenario(data); err != nil {
		fail(err.Error())
	}
	return fv, nil
}
