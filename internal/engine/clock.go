package engine

import "sync/atomic"

// Clock is the monotonic revision counter.
//
// Every state-changing intent is stamped with a strictly increasing revision
// from this clock. Unchanged applies do not advance it.
// Only the engine's run loop stamps revisions; Current may be read from any
// goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific revision.
// Used to continue numbering from a stored document revision.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new revision.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the latest stamped revision.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
