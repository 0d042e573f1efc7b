package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/redg/internal/compiler"
	"github.com/roach88/redg/internal/engine"
	"github.com/roach88/redg/internal/journal"
	"github.com/roach88/redg/internal/reducer"
	"github.com/roach88/redg/internal/wire"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - specific session only
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	Session       string `json:"session"`
	Entries       int    `json:"entries"`
	Seq           int64  `json:"seq"`
	StateHash     string `json:"state_hash,omitempty"`
	Deterministic bool   `json:"deterministic"`
	Error         string `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <specs-dir>",
		Short: "Replay journaled sessions and verify determinism",
		Long: `Rebuild every journaled session from the initial state with the reducers
compiled from <specs-dir>. After each entry the replayed state hash must
match the journaled one.

Exit codes:
  0 - All sessions replay deterministically
  1 - A session diverged from its journal
  2 - Command error (journal not found, bad specs, etc.)

Examples:
  redg replay ./specs --db ./redg.db
  redg replay ./specs --db ./redg.db --session 0192...
  redg replay ./specs --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.DB, "path to SQLite journal (env REDG_DB)")
	cmd.Flags().StringVar(&opts.Session, "session", rootOpts.Session, "replay specific session only (env REDG_SESSION)")

	return cmd
}

func runReplay(opts *ReplayOptions, specsDir string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.logger()

	program, err := loadProgram(f, specsDir)
	if err != nil {
		return err
	}

	j, err := openJournal(f, opts.Database, true)
	if err != nil {
		return err
	}
	defer closeJournal(j, logger)

	var sessions []string
	if opts.Session != "" {
		sessions = []string{opts.Session}
	} else {
		sessions, err = j.Sessions(ctx)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to list sessions: "+err.Error(), nil, nil)
		}
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(sessions)),
		TotalSessions:    len(sessions),
		AllDeterministic: true,
	}

	for _, session := range sessions {
		sr, err := replaySession(ctx, opts.RootOptions, program, j, session)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to replay session %s: %v", session, err), nil, nil)
		}
		result.Sessions = append(result.Sessions, sr)
		if !sr.Deterministic {
			result.AllDeterministic = false
		}
	}

	if !result.AllDeterministic {
		printReplay(f, result)
		return f.Fail(ExitFailure, ErrCodeDeterminism, "replay diverged from journal", result, nil)
	}
	if f.JSON() {
		return f.Success(result)
	}
	printReplay(f, result)
	return nil
}

// replaySession replays one session. Divergence is reported in the result;
// the returned error is reserved for journal failures.
func replaySession(ctx context.Context, opts *RootOptions, program *compiler.Program, j *journal.Journal, session string) (ReplaySessionResult, error) {
	entries, err := j.Entries(ctx, session)
	if err != nil {
		return ReplaySessionResult{}, err
	}
	sr := ReplaySessionResult{Session: session, Entries: len(entries)}

	eng, err := engine.Replay(ctx, program.Reducer(reducer.WithLogger(opts.logger())), j, session, engine.WithLogger(opts.logger()))
	if err != nil {
		if ctx.Err() != nil {
			return ReplaySessionResult{}, err
		}
		// NON_DETERMINISTIC, a reducer panic, or a record the compiled
		// slices no longer accept.
		sr.Error = err.Error()
		return sr, nil
	}

	sr.Seq = eng.Seq()
	sr.StateHash, err = wire.StateHash(eng.State())
	if err != nil {
		return ReplaySessionResult{}, err
	}
	sr.Deterministic = true
	return sr, nil
}

func printReplay(f *OutputFormatter, r ReplayResult) {
	if r.TotalSessions == 0 {
		f.Printf("No sessions found in journal.\n")
		return
	}
	f.Printf("Replayed %d session(s):\n\n", r.TotalSessions)
	for _, s := range r.Sessions {
		status := "✓"
		if !s.Deterministic {
			status = "✗"
		}
		f.Printf("  %s %s: %d entries, seq %d\n", status, s.Session, s.Entries, s.Seq)
		if s.Deterministic {
			f.VerboseLog("    state hash %s", s.StateHash)
		} else {
			f.Printf("    %s\n", s.Error)
		}
	}
	f.Printf("\n")
	if r.AllDeterministic {
		f.Printf("✓ All sessions replay deterministically\n")
	} else {
		f.Printf("✗ Replay diverged from journal\n")
	}
}
