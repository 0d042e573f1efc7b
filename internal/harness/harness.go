package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/redg/internal/action"
	"github.com/roach88/redg/internal/bind"
	"github.com/roach88/redg/internal/compiler"
	"github.com/roach88/redg/internal/engine"
	"github.com/roach88/redg/internal/journal"
	"github.com/roach88/redg/internal/reducer"
	"github.com/roach88/redg/internal/testutil"
	"github.com/roach88/redg/internal/toolbox"
	"github.com/roach88/redg/internal/wire"
)

// State is the root state of a compiled program.
type State = map[string]any

// Harness executes one scenario against a fresh engine.
type Harness struct {
	program  *compiler.Program
	journal  *journal.Journal
	engine   *engine.Engine[State]
	creators *toolbox.OrderedMap[*toolbox.OrderedMap[bind.Bound[State]]]
	logger   *slog.Logger

	// ref and trace are written by the engine listener, which runs
	// synchronously inside Dispatch.
	ref   string
	trace *[]TraceEvent
}

// Run executes a scenario with a background context.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext executes a scenario and returns its result.
//
// Each run uses a fresh in-memory journal, a deterministic clock and the
// scenario's fixed session. A non-nil error means the scenario could not be
// executed at all; failed expectations are reported through Result.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	loaded, errs := compiler.LoadSpecs(scenario.Specs, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load specs from %s: %w", scenario.Specs, errors.Join(errs...))
	}

	j, err := journal.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer j.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(loaded.Program.Reducer(reducer.WithLogger(logger)),
		engine.WithJournal(j),
		engine.WithSessionGenerator(testutil.NewFixedSessionGenerator(scenario.Session)),
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithLogger(logger),
	)

	h := &Harness{
		program: loaded.Program,
		journal: j,
		engine:  eng,
		creators: bind.BindActionCreatorsTree[action.Creator, action.Action, State](
			loaded.Program.Creators(), eng.Dispatcher(ctx)),
		logger: logger,
	}

	result := NewResult()
	result.Session = eng.Session()
	h.trace = &result.Trace
	cancel := eng.Subscribe(h.record)
	defer cancel()

	for i, step := range scenario.Steps {
		h.runStep(i, step, result)
	}

	result.State = eng.State()
	result.StateHash, err = wire.StateHash(result.State)
	if err != nil {
		return nil, fmt.Errorf("failed to hash final state: %w", err)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	if err := h.verifyReplay(ctx, result); err != nil {
		result.AddError(err.Error())
	}

	return result, nil
}

// record appends a committed dispatch to the trace.
func (h *Harness) record(_ State, a action.Action) {
	*h.trace = append(*h.trace, TraceEvent{
		Seq:        h.engine.Seq(),
		Ref:        h.ref,
		Type:       a.ActionType(),
		Payload:    a.PayloadValue(),
		HasPayload: a.HasPayload(),
	})
}

func (h *Harness) runStep(i int, step Step, result *Result) {
	prefix := fmt.Sprintf("steps[%d] %s", i, step.Dispatch)

	payload, err := step.PayloadValue()
	if err != nil {
		result.AddError(fmt.Sprintf("%s: %v", prefix, err))
		return
	}
	var args []any
	if step.HasPayload() {
		args = []any{payload}
	}

	event := TraceEvent{Ref: step.Dispatch, Payload: payload, HasPayload: step.HasPayload()}
	state, err := func() (State, error) {
		bound, err := h.lookup(step.Dispatch)
		if err != nil {
			return nil, err
		}
		event.Type = bound.Type()
		h.ref = step.Dispatch
		return bound.Call(args...)
	}()

	switch {
	case err != nil:
		event.Error = err.Error()
		result.Trace = append(result.Trace, event)
		if step.Error == "" {
			result.AddError(fmt.Sprintf("%s: dispatch failed: %v", prefix, err))
		} else if !strings.Contains(err.Error(), step.Error) {
			result.AddError(fmt.Sprintf("%s: expected error containing %q, got %q", prefix, step.Error, err.Error()))
		}
		return
	case step.Error != "":
		result.AddError(fmt.Sprintf("%s: expected error containing %q, dispatch succeeded", prefix, step.Error))
		return
	}

	for _, name := range sortedKeys(step.Expect) {
		want := step.Expect[name]
		got, ok := state[name]
		if !ok {
			result.AddError(fmt.Sprintf("%s: unknown slice %q in expect", prefix, name))
			continue
		}
		if !matchValue(got, want) {
			result.AddError(fmt.Sprintf("%s: slice %s = %s, want %s", prefix, name, render(got), render(want)))
		}
	}
}

// lookup finds the bound creator for "slice.key".
func (h *Harness) lookup(ref string) (bind.Bound[State], error) {
	name, key, _ := strings.Cut(ref, ".")
	group, ok := h.creators.Get(name)
	if !ok {
		return bind.Bound[State]{}, fmt.Errorf("unknown slice %q", name)
	}
	bound, ok := group.Get(key)
	if !ok {
		return bind.Bound[State]{}, fmt.Errorf("slice %s: unknown action %q", name, key)
	}
	return bound, nil
}

// verifyReplay rebuilds the session from the journal and checks that it
// lands on the same seq and state hash as the live engine.
func (h *Harness) verifyReplay(ctx context.Context, result *Result) error {
	re, err := engine.Replay(ctx, h.program.Reducer(reducer.WithLogger(h.logger)), h.journal, result.Session, engine.WithLogger(h.logger))
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	if re.Seq() != h.engine.Seq() {
		return fmt.Errorf("replay: seq %d, live engine at %d", re.Seq(), h.engine.Seq())
	}
	hash, err := wire.StateHash(re.State())
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	if hash != result.StateHash {
		return fmt.Errorf("replay: state hash %s, live engine %s", hash, result.StateHash)
	}
	return nil
}

// render formats a value as canonical JSON for messages.
func render(v any) string {
	data, err := wire.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
