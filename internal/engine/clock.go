package engine

import "sync/atomic"

// Clock assigns scalar sequence numbers to events that carry no recorded order.
//
// Recorded orders are fed through Observe so that an assigned number never
// falls behind an order already seen. Mixed input (some records with order,
// some without) therefore still yields a non-decreasing clock.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// Reconstruction is single-threaded, so only one goroutine calls it in practice.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 0.
func NewClock() *Clock {
	return NewClockAt(-1)
}

// NewClockAt creates a clock positioned at start; the next value is start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Observe moves the clock forward to n if it is behind. Never moves backward.
func (c *Clock) Observe(n int64) {
	for {
		cur := c.seq.Load()
		if n <= cur {
			return
		}
		if c.seq.CompareAndSwap(cur, n) {
			return
		}
	}
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
