package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/redg/internal/compiler"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Strict bool // treat lint warnings as failures
}

// ValidationIssue is one compile error or lint warning.
type ValidationIssue struct {
	Code     string `json:"code"`
	Severity string `json:"severity"` // "error" | "warning"
	Message  string `json:"message"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
}

// SliceSummary describes a compiled slice.
type SliceSummary struct {
	Name    string          `json:"name"`
	Actions []ActionSummary `json:"actions"`
}

// ActionSummary describes one declared action.
type ActionSummary struct {
	Key     string `json:"key"`
	Type    string `json:"type"`
	Payload string `json:"payload,omitempty"`
}

// ValidationResult is the output of the validate command.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Slices []SliceSummary    `json:"slices"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Compile and lint slice definitions",
		Long: `Compile every slice declared in the CUE package in <specs-dir> and lint
the resulting program.

Compile errors are always failures. Lint warnings (actions nothing reacts
to, empty handlers, matchers that select nothing) only fail with --strict.

Exit codes:
  0 - Valid
  1 - Compile errors (or warnings with --strict)
  2 - Command error (directory missing, no CUE files)

Examples:
  redg validate ./specs
  redg validate ./specs --strict --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on lint warnings")

	return cmd
}

func runValidate(opts *ValidateOptions, specsDir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loaded, loadErrs := compiler.LoadSpecs(specsDir, compiler.LoadModeCollectAll)
	if loaded == nil {
		issue := toIssue(loadErrs[0])
		return f.Fail(ExitCommandError, issue.Code, issue.Message, nil, nil)
	}
	f.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, specsDir)

	result := ValidationResult{Valid: true, Slices: summarize(loaded.Slices)}
	for _, err := range loadErrs {
		result.Issues = append(result.Issues, toIssue(err))
		result.Valid = false
	}
	if loaded.Program != nil {
		for _, w := range compiler.Validate(loaded.Program) {
			result.Issues = append(result.Issues, ValidationIssue{
				Code:     w.Code,
				Severity: "warning",
				Message:  fmt.Sprintf("slice.%s.%s: %s", w.Slice, w.Field, w.Message),
			})
			if opts.Strict {
				result.Valid = false
			}
		}
	}

	if f.JSON() {
		if result.Valid {
			return f.Success(result)
		}
		return f.Fail(ExitFailure, issueCode(result.Issues), "validation failed", result, nil)
	}

	w := f.Writer
	for _, issue := range result.Issues {
		loc := ""
		if issue.File != "" {
			loc = fmt.Sprintf("%s:%d: ", issue.File, issue.Line)
		}
		fmt.Fprintf(w, "%s [%s] %s%s\n", issue.Severity, issue.Code, loc, issue.Message)
	}
	if !result.Valid {
		fmt.Fprintf(w, "✗ %d issue(s) found\n", len(result.Issues))
		return &ExitError{Code: ExitFailure, Message: "validation failed", Reported: true}
	}
	for _, s := range result.Slices {
		fmt.Fprintf(w, "  %s: %d action(s)\n", s.Name, len(s.Actions))
	}
	fmt.Fprintf(w, "✓ %d slice(s) valid\n", len(result.Slices))
	return nil
}

func summarize(defs []*compiler.SliceDef) []SliceSummary {
	out := make([]SliceSummary, 0, len(defs))
	for _, d := range defs {
		s := SliceSummary{Name: d.Name, Actions: make([]ActionSummary, 0, len(d.Actions))}
		for _, a := range d.Actions {
			s.Actions = append(s.Actions, ActionSummary{Key: a.Key, Type: a.Type, Payload: string(a.Payload)})
		}
		out = append(out, s)
	}
	return out
}

func toIssue(err error) ValidationIssue {
	issue := ValidationIssue{Code: compiler.ErrCodeGeneric, Severity: "error", Message: err.Error()}
	var le *compiler.LoadError
	if errors.As(err, &le) {
		issue.Code = le.Code
		issue.Message = le.Message
		if le.Pos.IsValid() {
			issue.File = le.Pos.Filename()
			issue.Line = le.Pos.Line()
		}
	}
	return issue
}

// issueCode picks the code reported for a failed validation: the first
// error, or the first warning when there are no errors.
func issueCode(issues []ValidationIssue) string {
	for _, i := range issues {
		if i.Severity == "error" {
			return i.Code
		}
	}
	if len(issues) > 0 {
		return issues[0].Code
	}
	return compiler.ErrCodeGeneric
}
