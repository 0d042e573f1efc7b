package engine

import "sync/atomic"

// Sequencer hands out strictly increasing dispatch sequence numbers.
// testutil.DeterministicClock also satisfies it.
type Sequencer interface {
	Next() int64
	Current() int64
}

// Clock is the default Sequencer: an atomic logical clock starting at 0.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next value is start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out, or the start value.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
