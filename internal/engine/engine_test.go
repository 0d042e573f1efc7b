package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/redg/internal/action"
	"github.com/roach88/redg/internal/bind"
	"github.com/roach88/redg/internal/journal"
	"github.com/roach88/redg/internal/reducer"
	"github.com/roach88/redg/internal/wire"
)

type counter struct {
	Count int `json:"count"`
}

var (
	inc  = action.Define("counter/inc")
	add  = action.DefineWithPayload("counter/add", func(n int) int { return n })
	boom = action.Define("counter/boom")
)

func counterReducer() reducer.Func[counter] {
	return reducer.SliceReducer(counter{})(func(s *reducer.Slice[counter]) {
		s.Handle(inc, reducer.Empty(func(c counter) counter {
			c.Count++
			return c
		}))
		s.Handle(add, reducer.WithPayload(func(c counter, n int) counter {
			c.Count += n
			return c
		}))
		s.Handle(boom, reducer.Empty(func(counter) counter {
			panic("boom")
		}))
	})
}

// decodeCounter restores the int payload of counter/add from its JSON form.
func decodeCounter(r wire.Record) (action.Action, error) {
	if r.Type == add.Type() {
		n, ok := r.Payload.(int64)
		if !ok {
			return nil, errors.New("counter/add: payload is not an integer")
		}
		return add.Create(int(n)), nil
	}
	return wire.Decode(r), nil
}

func newTestEngine(t *testing.T, opts ...EngineOption) *Engine[counter] {
	t.Helper()
	opts = append([]EngineOption{WithSessionGenerator(NewFixedGenerator("session-1"))}, opts...)
	return New(counterReducer(), opts...)
}

func openTestJournal(t *testing.T) *journal.Journal {
	t.Helper()
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

type failingJournal struct{}

func (failingJournal) Append(context.Context, journal.Entry) (bool, error) {
	return false, errors.New("disk full")
}

func (failingJournal) Entries(context.Context, string) ([]journal.Entry, error) {
	return nil, errors.New("disk full")
}

func TestEngine_New(t *testing.T) {
	e := newTestEngine(t)

	assert.Equal(t, counter{}, e.State())
	assert.Equal(t, "session-1", e.Session())
	assert.Equal(t, int64(0), e.Seq())
}

func TestEngine_DefaultSessionIsUUIDv7(t *testing.T) {
	e := New(counterReducer())
	assert.Len(t, e.Session(), 36)
}

func TestEngine_Dispatch(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	state, err := e.Dispatch(ctx, inc.Create())
	require.NoError(t, err)
	assert.Equal(t, counter{Count: 1}, state)

	state, err = e.Dispatch(ctx, add.Create(5))
	require.NoError(t, err)
	assert.Equal(t, counter{Count: 6}, state)

	assert.Equal(t, counter{Count: 6}, e.State())
	assert.Equal(t, int64(2), e.Seq())
}

func TestEngine_DispatchUnknownActionKeepsState(t *testing.T) {
	e := newTestEngine(t)

	state, err := e.Dispatch(context.Background(), action.EmptyAction{Type: "other/thing"})
	require.NoError(t, err)
	assert.Equal(t, counter{}, state)
	assert.Equal(t, int64(1), e.Seq(), "unhandled actions are still committed")
}

func TestEngine_DispatchRecoversPanic(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Dispatch(ctx, inc.Create())
	require.NoError(t, err)

	state, err := e.Dispatch(ctx, boom.Create())
	require.Error(t, err)
	assert.True(t, IsPanicError(err))
	assert.Contains(t, err.Error(), "counter/boom")
	assert.Equal(t, counter{Count: 1}, state, "previous state is returned")
	assert.Equal(t, counter{Count: 1}, e.State())
	assert.Equal(t, int64(1), e.Seq(), "failed dispatch does not advance the clock")
}

func TestEngine_DispatchPayloadTypeMismatch(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Dispatch(context.Background(), action.PayloadAction[string]{Type: "counter/add", Payload: "x"})
	require.Error(t, err)
	assert.True(t, IsPanicError(err))

	var typeErr *reducer.PayloadTypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestEngine_DispatchRejectsNilAndCancelled(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Dispatch(context.Background(), nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Dispatch(ctx, inc.Create())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), e.Seq())
}

func TestEngine_Subscribe(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	var seen []string
	cancel := e.Subscribe(func(s counter, a action.Action) {
		seen = append(seen, a.ActionType())
		assert.Equal(t, s, e.State(), "listeners run after commit")
	})
	e.Subscribe(func(counter, action.Action) {
		seen = append(seen, "second")
	})

	_, err := e.Dispatch(ctx, inc.Create())
	require.NoError(t, err)
	_, err = e.Dispatch(ctx, boom.Create())
	require.Error(t, err)

	cancel()
	_, err = e.Dispatch(ctx, inc.Create())
	require.NoError(t, err)

	assert.Equal(t, []string{"counter/inc", "second", "second"}, seen)
}

func TestEngine_Journal(t *testing.T) {
	j := openTestJournal(t)
	e := newTestEngine(t, WithJournal(j))
	ctx := context.Background()

	_, err := e.Dispatch(ctx, inc.Create())
	require.NoError(t, err)
	_, err = e.Dispatch(ctx, boom.Create())
	require.Error(t, err)
	_, err = e.Dispatch(ctx, add.Create(2))
	require.NoError(t, err)

	entries, err := j.Entries(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, entries, 2, "failed dispatches are not journaled")

	assert.Equal(t, int64(1), entries[0].Seq)
	assert.Equal(t, wire.Record{Type: "counter/inc"}, entries[0].Record)
	assert.Equal(t, wire.MustStateHash(counter{Count: 1}), entries[0].StateHash)

	assert.Equal(t, int64(2), entries[1].Seq)
	assert.Equal(t, wire.Record{Type: "counter/add", Payload: int64(2), HasPayload: true}, entries[1].Record)
	assert.Equal(t, wire.MustStateHash(counter{Count: 3}), entries[1].StateHash)
}

func TestEngine_JournalFailureKeepsState(t *testing.T) {
	e := newTestEngine(t, WithJournal(failingJournal{}))

	state, err := e.Dispatch(context.Background(), inc.Create())
	require.Error(t, err)
	assert.True(t, IsJournalError(err))
	assert.Equal(t, counter{}, state)
	assert.Equal(t, int64(0), e.Seq())
}

func TestEngine_Dispatcher(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	bound := bind.BindActionCreator[action.Action](add, e.Dispatcher(ctx), "")
	assert.Equal(t, "counter/add", bound.Type())

	state, err := bound.Call(4)
	require.NoError(t, err)
	assert.Equal(t, counter{Count: 4}, state)

	_, err = bound.Call("four")
	assert.True(t, action.IsArgumentError(err))
	assert.Equal(t, int64(1), e.Seq())
}

func TestEngine_RunDrainsQueue(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Enqueue(inc.Create()))
	require.NoError(t, e.Enqueue(boom.Create()))
	require.NoError(t, e.Enqueue(add.Create(10)))
	assert.Equal(t, 3, e.Pending())

	e.Stop()
	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, counter{Count: 11}, e.State(), "a failed action does not stop the loop")
	assert.Equal(t, 0, e.Pending())
}

func TestEngine_RunAsync(t *testing.T) {
	e := newTestEngine(t)
	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	applied := make(chan struct{}, 3)
	e.Subscribe(func(counter, action.Action) { applied <- struct{}{} })

	for range 3 {
		require.NoError(t, e.Enqueue(inc.Create()))
	}
	for range 3 {
		<-applied
	}
	e.Stop()

	require.NoError(t, <-done)
	assert.Equal(t, counter{Count: 3}, e.State())
}

func TestEngine_RunContextCancelled(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	err = e.Enqueue(inc.Create())
	assert.True(t, IsStoppedError(err), "cancelling Run closes the queue")
}

func TestEngine_Stop(t *testing.T) {
	e := newTestEngine(t)
	e.Stop()

	_, err := e.Dispatch(context.Background(), inc.Create())
	assert.True(t, IsStoppedError(err))

	err = e.Enqueue(inc.Create())
	assert.True(t, IsStoppedError(err))

	assert.Error(t, e.Enqueue(nil))
}
