package engine

import (
	"context"
	"fmt"

	"github.com/roach88/redg/internal/reducer"
	"github.com/roach88/redg/internal/wire"
)

// Replay rebuilds the engine of a journaled session.
//
// Every entry is decoded and reduced again from the initial state. After
// each step the state hash must equal the journaled one and the clock must
// land on the journaled seq; otherwise Replay fails with NON_DETERMINISTIC.
// Nothing is written to the journal while replaying. The returned engine
// continues the session: its next dispatch is appended at seq last+1.
//
// Records are decoded with the WithRecordDecoder option, by default into
// action.PayloadAction[any].
func Replay[S any](ctx context.Context, r reducer.Func[S], j Journal, session string, opts ...EngineOption) (*Engine[S], error) {
	if session == "" {
		return nil, fmt.Errorf("replay: empty session")
	}
	opts = append(opts, WithJournal(j), WithSession(session))
	e := New(r, opts...)

	entries, err := j.Entries(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", session, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		a, err := e.decode(entry.Record)
		if err != nil {
			return nil, fmt.Errorf("replay %s: seq %d: %w", session, entry.Seq, err)
		}
		next, err := e.reduce(e.state, a)
		if err != nil {
			return nil, err
		}

		seq := e.clock.Next()
		if seq != entry.Seq {
			return nil, NewNonDeterministicError(session, a.ActionType(), entry.Seq,
				fmt.Sprintf("journal seq %d does not follow %d", entry.Seq, seq-1))
		}

		hash, err := wire.StateHash(next)
		if err != nil {
			return nil, fmt.Errorf("replay %s: seq %d: %w", session, entry.Seq, err)
		}
		if hash != entry.StateHash {
			return nil, NewNonDeterministicError(session, a.ActionType(), entry.Seq,
				"replayed state differs from journaled state")
		}
		e.state = next
	}

	e.logger.Info("session replayed", "entries", len(entries), "seq", e.clock.Current())
	return e, nil
}
