// Package testutil provides deterministic fixtures shared by store,
// dispatch, and harness tests: a pinned clock and sequential id
// generation, so timestamps and identifiers never vary between runs.
package testutil

import (
	"sync"
	"time"
)

// BaseTime is the pinned start instant used across tests.
var BaseTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

// FixedClock implements model.Clock for tests. Every Now call returns the
// current instant and then advances by a fixed step, so consecutive
// records get distinct, reproducible timestamps.
//
// Thread-safety: all methods are safe for concurrent use.
type FixedClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewFixedClock creates a clock pinned at start, advancing by step per
// Now call. A zero step freezes time entirely.
func NewFixedClock(start time.Time, step time.Duration) *FixedClock {
	return &FixedClock{now: start, step: step}
}

// NewTestClock returns the conventional test clock: BaseTime, advancing
// one second per observation.
func NewTestClock() *FixedClock {
	return NewFixedClock(BaseTime, time.Second)
}

// Now returns the current instant and advances the clock.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Peek returns the instant the next Now call will produce, without
// advancing.
func (c *FixedClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d without producing an observation.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
