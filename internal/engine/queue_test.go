package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/redg/internal/action"
)

func TestActionQueue_FIFO(t *testing.T) {
	q := newActionQueue()

	for _, typ := range []string{"A", "B", "C"} {
		require.True(t, q.Enqueue(action.EmptyAction{Type: typ}))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"A", "B", "C"} {
		a, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, a.ActionType())
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok, "queue is empty")
	assert.Equal(t, 0, q.Len())
}

func TestActionQueue_Signal(t *testing.T) {
	q := newActionQueue()
	q.Enqueue(action.EmptyAction{Type: "A"})
	q.Enqueue(action.EmptyAction{Type: "B"})

	select {
	case <-q.Wait():
	default:
		t.Fatal("enqueue should signal")
	}

	select {
	case <-q.Wait():
		t.Fatal("signals coalesce into one")
	default:
	}
}

func TestActionQueue_Close(t *testing.T) {
	q := newActionQueue()
	q.Enqueue(action.EmptyAction{Type: "A"})
	q.Close()
	q.Close()

	assert.True(t, q.Closed())
	assert.False(t, q.Enqueue(action.EmptyAction{Type: "B"}), "closed queue rejects actions")

	a, ok := q.TryDequeue()
	require.True(t, ok, "pending actions survive Close")
	assert.Equal(t, "A", a.ActionType())

	// The first receive may still see the token left by Enqueue.
	_, open := <-q.Wait()
	if open {
		_, open = <-q.Wait()
	}
	assert.False(t, open, "Close closes the signal channel")
}

func TestActionQueue_CloseWakesIdleWaiter(t *testing.T) {
	q := newActionQueue()
	q.Close()

	_, open := <-q.Wait()
	assert.False(t, open)
}

func TestActionQueue_ThreadSafe(t *testing.T) {
	q := newActionQueue()
	const producers = 10
	const perProducer = 100

	var wg sync.WaitGroup
	for range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perProducer {
				q.Enqueue(action.EmptyAction{Type: "tick"})
			}
		}()
	}
	wg.Wait()

	n := 0
	for {
		if _, ok := q.TryDequeue(); !ok {
			break
		}
		n++
	}
	assert.Equal(t, producers*perProducer, n)
}
