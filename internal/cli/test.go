package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/redg/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario-path>...",
		Short: "Run scenario files against their slices",
		Long: `Run YAML scenarios through the harness. Each scenario names its specs
directory, dispatches its steps through a fresh in-memory journal, checks
its assertions and verifies that replaying the journal reproduces the
final state. Traces are compared with golden files next to the scenario
(golden/<name>.golden) when one exists.

Paths may be scenario files or directories, which are searched recursively.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, bad filter)

Examples:
  redg test ./scenarios
  redg test ./scenarios --filter "counter*"
  redg test ./scenarios/todos.yaml --update
  redg test ./scenarios --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	files, err := harness.FindScenarios(paths, opts.Filter)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, err.Error(), nil, nil)
	}
	f.VerboseLog("Found %d scenario file(s)", len(files))

	result := harness.RunSuite(commandContext(cmd), files, harness.SuiteOptions{
		Filter: opts.Filter,
		Update: opts.Update,
	})

	if result.Failed > 0 {
		printTests(f, result)
		return f.Fail(ExitFailure, ErrCodeTestFailed, "one or more scenarios failed", result, nil)
	}
	if f.JSON() {
		return f.Success(result)
	}
	printTests(f, result)
	return nil
}

func printTests(f *OutputFormatter, r *harness.SuiteResult) {
	if r.Total == 0 {
		f.Printf("No scenarios found.\n")
		return
	}

	for _, s := range r.Scenarios {
		status := "✓"
		if !s.Pass {
			status = "✗"
		}
		name := s.Name
		if name == "" {
			name = s.Path
		}
		f.Printf("%s %s (%d committed", status, name, s.Committed)
		if s.Golden != "" {
			f.Printf(", golden %s", s.Golden)
		}
		f.Printf(")\n")
		for _, e := range s.Errors {
			f.Printf("    %s\n", e)
		}
	}

	f.Printf("\nResults: %d passed, %d failed, %d total\n", r.Passed, r.Failed, r.Total)
}
