package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/redg/internal/action"
	"github.com/roach88/redg/internal/bind"
	"github.com/roach88/redg/internal/compiler"
	"github.com/roach88/redg/internal/engine"
	"github.com/roach88/redg/internal/reducer"
	"github.com/roach88/redg/internal/toolbox"
	"github.com/roach88/redg/internal/wire"
)

// DispatchOptions holds flags for the dispatch command.
type DispatchOptions struct {
	*RootOptions
	Database string
	Session  string // resume this session; empty starts a new one
}

// DispatchedAction is one committed action.
type DispatchedAction struct {
	Seq        int64  `json:"seq"`
	Type       string `json:"type"`
	Payload    any    `json:"payload,omitempty"`
	HasPayload bool   `json:"has_payload"`
}

// DispatchResult is the output of the dispatch command.
type DispatchResult struct {
	Session    string             `json:"session"`
	Resumed    bool               `json:"resumed"` // session had journaled entries
	Seq        int64              `json:"seq"`
	Dispatched []DispatchedAction `json:"dispatched"`
	Rejected   int                `json:"rejected"`
	State      map[string]any     `json:"state"`
	StateHash  string             `json:"state_hash"`
}

// NewDispatchCommand creates the dispatch command.
func NewDispatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DispatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dispatch <specs-dir> <slice.key[=payload-json]>...",
		Short: "Dispatch actions through the journaled store",
		Long: `Compile the slices in <specs-dir>, then dispatch the given actions in order
through the single-writer store. Each committed action is appended to the
journal together with the hash of the state it produced.

An action is written as slice.key, with an optional JSON payload after '='.
With --session the journaled session is replayed first and the new actions
continue it. A --session with no journaled entries starts a new session
under that name; the output reports "resumed" only for existing sessions.
Without --session a new session with a generated id is started.

Exit codes:
  0 - All actions committed
  1 - One or more actions were rejected (see log)
  2 - Command error (bad specs, unknown action, invalid payload JSON)

Examples:
  redg dispatch ./specs counter.inc 'counter.add=5'
  redg dispatch ./specs 'todos.add={"id":1,"title":"ship"}' --session 0192...
  redg dispatch ./specs counter.reset --db ./redg.db --format json`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDispatch(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.DB, "path to SQLite journal (env REDG_DB)")
	cmd.Flags().StringVar(&opts.Session, "session", rootOpts.Session, "session to continue (env REDG_SESSION)")

	return cmd
}

// bindTree is the creator tree of a Program bound to a dispatch func.
type bindTree = toolbox.OrderedMap[*toolbox.OrderedMap[bind.Bound[action.Action]]]

// actionArg is a parsed "slice.key[=payload]" argument.
type actionArg struct {
	ref        string
	payload    any
	hasPayload bool
}

func parseActionArg(arg string) (actionArg, error) {
	ref, raw, hasPayload := strings.Cut(arg, "=")
	name, key, ok := strings.Cut(ref, ".")
	if !ok || name == "" || key == "" {
		return actionArg{}, fmt.Errorf("invalid action %q (want slice.key[=payload-json])", arg)
	}
	a := actionArg{ref: ref, hasPayload: hasPayload}
	if hasPayload {
		v, err := wire.DecodeJSON([]byte(raw))
		if err != nil {
			return actionArg{}, fmt.Errorf("invalid payload for %s: %w", ref, err)
		}
		a.payload = v
	}
	return a, nil
}

func runDispatch(opts *DispatchOptions, specsDir string, args []string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.logger()

	parsed := make([]actionArg, len(args))
	for i, arg := range args {
		a, err := parseActionArg(arg)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeInvalidArgs, err.Error(), nil, nil)
		}
		parsed[i] = a
	}

	program, err := loadProgram(f, specsDir)
	if err != nil {
		return err
	}

	j, err := openJournal(f, opts.Database, false)
	if err != nil {
		return err
	}
	defer closeJournal(j, logger)

	var (
		eng     *engine.Engine[map[string]any]
		resumed bool
	)
	if opts.Session != "" {
		last, err := j.LastSeq(ctx, opts.Session)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to read session: "+err.Error(), nil, nil)
		}
		resumed = last > 0
		if !resumed {
			logger.Info("starting new session", "session", opts.Session)
		}

		eng, err = engine.Replay(ctx, program.Reducer(reducer.WithLogger(logger)), j, opts.Session, engine.WithLogger(logger))
		if err != nil {
			code, exit := ErrCodeDatabase, ExitCommandError
			if engine.IsNonDeterministicError(err) || engine.IsPanicError(err) {
				code, exit = ErrCodeDeterminism, ExitFailure
			}
			return f.Fail(exit, code, fmt.Sprintf("failed to resume session %s: %v", opts.Session, err), nil, nil)
		}
	} else {
		eng = engine.New(program.Reducer(reducer.WithLogger(logger)), engine.WithJournal(j), engine.WithLogger(logger))
	}

	// Creators are bound to the queue; the run loop below commits them.
	creators := bind.BindActionCreatorsTree[action.Creator, action.Action, action.Action](
		program.Creators(),
		func(a action.Action) (action.Action, error) { return a, eng.Enqueue(a) },
	)
	for _, a := range parsed {
		if err := enqueueArg(program, creators, a); err != nil {
			return f.Fail(ExitCommandError, ErrCodeInvalidArgs, err.Error(), nil, nil)
		}
	}

	result := DispatchResult{Session: eng.Session(), Resumed: resumed, Dispatched: []DispatchedAction{}}
	cancel := eng.Subscribe(func(_ map[string]any, a action.Action) {
		result.Dispatched = append(result.Dispatched, DispatchedAction{
			Seq:        eng.Seq(),
			Type:       a.ActionType(),
			Payload:    a.PayloadValue(),
			HasPayload: a.HasPayload(),
		})
	})
	defer cancel()

	eng.Stop()
	if err := eng.Run(ctx); err != nil {
		return f.Fail(ExitCommandError, ErrCodeDispatch, "dispatch interrupted: "+err.Error(), nil, nil)
	}

	result.Seq = eng.Seq()
	result.State = eng.State()
	result.Rejected = len(parsed) - len(result.Dispatched)
	result.StateHash, err = wire.StateHash(result.State)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeDispatch, "failed to hash state: "+err.Error(), nil, nil)
	}

	if result.Rejected > 0 {
		msg := fmt.Sprintf("%d of %d action(s) rejected", result.Rejected, len(parsed))
		printDispatch(f, result)
		return f.Fail(ExitFailure, ErrCodeDispatch, msg, result, nil)
	}
	if f.JSON() {
		return f.Success(result)
	}
	printDispatch(f, result)
	return nil
}

// enqueueArg resolves a.ref in the bound tree and calls it.
func enqueueArg(program *compiler.Program, creators *bindTree, a actionArg) error {
	if _, _, err := program.Resolve(a.ref); err != nil {
		return err
	}
	name, key, _ := strings.Cut(a.ref, ".")
	group, _ := creators.Get(name)
	bound, _ := group.Get(key)

	var err error
	if a.hasPayload {
		_, err = bound.Call(a.payload)
	} else {
		_, err = bound.Call()
	}
	if err != nil {
		return fmt.Errorf("%s: %w", a.ref, err)
	}
	return nil
}

func printDispatch(f *OutputFormatter, r DispatchResult) {
	if r.Resumed {
		f.Printf("Session: %s (resumed)\n", r.Session)
	} else {
		f.Printf("Session: %s (new)\n", r.Session)
	}
	for _, d := range r.Dispatched {
		if d.HasPayload {
			f.Printf("  [%d] %s %s\n", d.Seq, d.Type, canonicalString(d.Payload))
		} else {
			f.Printf("  [%d] %s\n", d.Seq, d.Type)
		}
	}
	f.Printf("Seq: %d\n", r.Seq)
	f.Printf("State: %s\n", canonicalString(r.State))
}

// canonicalString renders v as canonical JSON, falling back to %v.
func canonicalString(v any) string {
	data, err := wire.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
