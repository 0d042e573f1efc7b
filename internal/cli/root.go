package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/redg/internal/compiler"
	"github.com/roach88/redg/internal/config"
	"github.com/roach88/redg/internal/journal"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Defaults for the per-command --db and --session flags.
	DB      string
	Session string

	// Logger is built from Verbose before any subcommand runs.
	Logger *slog.Logger
}

// NewRootCommand creates the redg root command. cfg supplies the flag
// defaults read from the environment.
func NewRootCommand(cfg config.Config) *cobra.Command {
	opts := &RootOptions{DB: cfg.DB, Session: cfg.Session}

	cmd := &cobra.Command{
		Use:   "redg",
		Short: "redg - typed actions and slice reducers",
		Long: `redg compiles CUE slice definitions into action creators and reducers,
dispatches actions through a journaled single-writer store and replays
journaled sessions to check that reducers are deterministic.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !config.ValidFormat(opts.Format) {
				f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
				return f.Fail(ExitCommandError, ErrCodeInvalidFormat,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, config.Formats), nil, nil)
			}
			opts.Logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", cfg.Verbose, "verbose output (env REDG_VERBOSE)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", cfg.Format, "output format (json|text) (env REDG_FORMAT)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDispatchCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// newLogger logs to w at debug level when verbose, warnings otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadProgram compiles the slices in dir, reporting load failures through f.
func loadProgram(f *OutputFormatter, dir string) (*compiler.Program, error) {
	result, errs := compiler.LoadSpecs(dir, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		code, msg := compiler.ErrCodeGeneric, errs[0].Error()
		var le *compiler.LoadError
		if errors.As(errs[0], &le) {
			code = le.Code
		}
		return nil, f.Fail(ExitCommandError, code, "failed to load specs: "+msg, nil, nil)
	}
	f.VerboseLog("Loaded %d slice(s) from %d CUE file(s) in %s", len(result.Slices), result.FileCount, dir)
	return result.Program, nil
}

// openJournal opens the journal at path. With mustExist the file has to be
// there already; replaying or tracing an empty new journal is a usage error.
func openJournal(f *OutputFormatter, path string, mustExist bool) (*journal.Journal, error) {
	if mustExist {
		if _, err := os.Stat(path); err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("journal not found: %s", path), nil, nil)
		}
	}
	j, err := journal.Open(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to open journal %s: %v", path, err), nil, nil)
	}
	return j, nil
}

func closeJournal(j *journal.Journal, logger *slog.Logger) {
	if err := j.Close(); err != nil {
		logger.Error("error closing journal", "error", err)
	}
}
