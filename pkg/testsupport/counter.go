package testsupport

import (
	"sync"
	"sync/atomic"
	"time"
)

// Counter counts invocations of a compute function.
type Counter struct {
	n atomic.Int64
}

// Inc records one invocation and returns the new total.
func (c *Counter) Inc() int {
	return int(c.n.Add(1))
}

// Count returns the number of recorded invocations.
func (c *Counter) Count() int {
	return int(c.n.Load())
}

// Clock is a manually advanced clock for timed cache tests.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock set to start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
