package engine

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/redg/internal/action"
	"github.com/roach88/redg/internal/journal"
	"github.com/roach88/redg/internal/reducer"
	"github.com/roach88/redg/internal/wire"
)

// Journal is the durable log an engine appends committed actions to.
// *journal.Journal implements it.
type Journal interface {
	Append(ctx context.Context, e journal.Entry) (inserted bool, err error)
	Entries(ctx context.Context, session string) ([]journal.Entry, error)
}

// Listener is notified after each committed dispatch.
type Listener[S any] func(state S, a action.Action)

type subscription[S any] struct {
	id int
	fn Listener[S]
}

// Engine hosts a reducer and owns its state.
type Engine[S any] struct {
	mu      sync.Mutex
	reducer reducer.Func[S]
	decode  RecordDecoder
	state   S
	session string
	clock   Sequencer
	journal Journal
	logger  *slog.Logger
	queue   *actionQueue
	stopped bool

	subs    []subscription[S]
	nextSub int
}

// RecordDecoder turns a journaled record back into an action for Replay.
type RecordDecoder func(r wire.Record) (action.Action, error)

func decodeRecord(r wire.Record) (action.Action, error) {
	return wire.Decode(r), nil
}

type engineConfig struct {
	decode  RecordDecoder
	journal Journal
	gen     SessionGenerator
	session string
	clock   Sequencer
	logger  *slog.Logger
}

// EngineOption configures an engine.
type EngineOption func(*engineConfig)

// WithJournal appends every committed dispatch to j.
func WithJournal(j Journal) EngineOption {
	return func(c *engineConfig) { c.journal = j }
}

// WithRecordDecoder sets how Replay rebuilds actions from the journal.
// The default yields action.PayloadAction[any] for payload records; a
// decoder that restores typed payloads lets typed WithPayload cases replay.
func WithRecordDecoder(d RecordDecoder) EngineOption {
	return func(c *engineConfig) { c.decode = d }
}

// WithSessionGenerator names the session when WithSession is not given.
// Defaults to UUIDv7Generator.
func WithSessionGenerator(g SessionGenerator) EngineOption {
	return func(c *engineConfig) { c.gen = g }
}

// WithSession sets the session token explicitly.
func WithSession(session string) EngineOption {
	return func(c *engineConfig) { c.session = session }
}

// WithClock sets the sequencer that stamps dispatches.
func WithClock(clock Sequencer) EngineOption {
	return func(c *engineConfig) { c.clock = clock }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(c *engineConfig) { c.logger = l }
}

// New creates an engine whose state is the reducer's initial state.
func New[S any](r reducer.Func[S], opts ...EngineOption) *Engine[S] {
	cfg := engineConfig{
		decode: decodeRecord,
		gen:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.session == "" {
		cfg.session = cfg.gen.Generate()
	}
	if cfg.clock == nil {
		cfg.clock = NewClock()
	}

	return &Engine[S]{
		reducer: r,
		decode:  cfg.decode,
		state:   r.Init(),
		session: cfg.session,
		clock:   cfg.clock,
		journal: cfg.journal,
		logger:  cfg.logger.With("session", cfg.session),
		queue:   newActionQueue(),
	}
}

// State returns the current state.
func (e *Engine[S]) State() S {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Session returns the session token.
func (e *Engine[S]) Session() string {
	return e.session
}

// Seq returns the sequence number of the last committed dispatch.
func (e *Engine[S]) Seq() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Current()
}

// Subscribe registers fn to run after every committed dispatch, in
// subscription order. The returned func removes it.
func (e *Engine[S]) Subscribe(fn Listener[S]) (cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextSub
	e.nextSub++
	e.subs = append(e.subs, subscription[S]{id: id, fn: fn})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.subs = slices.DeleteFunc(e.subs, func(s subscription[S]) bool { return s.id == id })
	}
}

// Dispatch reduces a against the current state and commits the result.
//
// On any error the state is left untouched and returned unchanged. The
// returned state is the one this dispatch committed, even if another
// dispatch commits right after it.
func (e *Engine[S]) Dispatch(ctx context.Context, a action.Action) (S, error) {
	return e.dispatch(ctx, a, false)
}

// dispatch implements Dispatch. drain lets the Run loop finish actions that
// were queued before Stop.
func (e *Engine[S]) dispatch(ctx context.Context, a action.Action, drain bool) (S, error) {
	if a == nil {
		return e.State(), errors.New("dispatch: nil action")
	}
	if err := ctx.Err(); err != nil {
		return e.State(), err
	}

	e.mu.Lock()
	if e.stopped && !drain {
		state := e.state
		e.mu.Unlock()
		return state, NewStoppedError(e.session, a.ActionType())
	}

	next, err := e.reduce(e.state, a)
	if err != nil {
		state := e.state
		e.mu.Unlock()
		return state, err
	}

	seq := e.clock.Current() + 1
	if e.journal != nil {
		if err := e.record(ctx, seq, a, next); err != nil {
			state := e.state
			e.mu.Unlock()
			return state, err
		}
	}

	e.state = next
	e.clock.Next()
	listeners := slices.Clone(e.subs)
	e.mu.Unlock()

	e.logger.Debug("action dispatched", "action_type", a.ActionType(), "seq", seq)

	for _, s := range listeners {
		s.fn(next, a)
	}
	return next, nil
}

// Dispatcher adapts Dispatch to the shape bind.BindActionCreator expects.
func (e *Engine[S]) Dispatcher(ctx context.Context) func(action.Action) (S, error) {
	return func(a action.Action) (S, error) {
		return e.Dispatch(ctx, a)
	}
}

// reduce applies the reducer, converting a panic into a RuntimeError.
func (e *Engine[S]) reduce(state S, a action.Action) (next S, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("reducer panicked", "action_type", a.ActionType(), "panic", r)
			err = NewPanicError(e.session, a.ActionType(), r)
		}
	}()
	return e.reducer.Apply(state, a), nil
}

func (e *Engine[S]) record(ctx context.Context, seq int64, a action.Action, next S) error {
	rec, err := wire.Encode(a)
	if err != nil {
		return NewJournalError(e.session, a.ActionType(), seq, err)
	}
	hash, err := wire.StateHash(next)
	if err != nil {
		return NewJournalError(e.session, a.ActionType(), seq, err)
	}
	entry, err := journal.NewEntry(e.session, seq, rec, hash)
	if err != nil {
		return NewJournalError(e.session, a.ActionType(), seq, err)
	}
	if _, err := e.journal.Append(ctx, entry); err != nil {
		return NewJournalError(e.session, a.ActionType(), seq, err)
	}
	return nil
}

// Enqueue schedules a for the Run loop.
func (e *Engine[S]) Enqueue(a action.Action) error {
	if a == nil {
		return errors.New("enqueue: nil action")
	}
	if !e.queue.Enqueue(a) {
		return NewStoppedError(e.session, a.ActionType())
	}
	return nil
}

// Run dispatches queued actions until ctx is cancelled or Stop is called
// and the queue has drained.
//
// Must be called from exactly one goroutine. A failed dispatch is logged
// and the loop moves on to the next action.
func (e *Engine[S]) Run(ctx context.Context) error {
	e.logger.Info("engine starting")

	for {
		if a, ok := e.queue.TryDequeue(); ok {
			if _, err := e.dispatch(ctx, a, true); err != nil {
				e.logger.Error("action processing failed",
					"error", err,
					"action_type", a.ActionType(),
				)
			}
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			if e.queue.Closed() && e.queue.Len() == 0 {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns once pending actions are processed;
// Dispatch and Enqueue fail with ENGINE_STOPPED from now on.
func (e *Engine[S]) Stop() {
	e.queue.Close()
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()
}

// Pending returns the number of queued actions.
func (e *Engine[S]) Pending() int {
	return e.queue.Len()
}
