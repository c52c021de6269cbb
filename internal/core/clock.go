package core

import (
	"sync"
	"time"
)

// Clock supplies audit log timestamps. Successive calls never go backwards.
type Clock interface {
	Now() time.Time
}

// MonotonicClock is the default Clock. It reads wall time in UTC and bumps by
// one nanosecond whenever the wall clock would repeat or step back.
type MonotonicClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewMonotonicClock creates a MonotonicClock over time.Now.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{now: time.Now}
}

// Now returns a UTC timestamp strictly after the previous one.
func (c *MonotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now
	if now == nil {
		now = time.Now
	}
	t := now().UTC().Round(0)
	if !t.After(c.last) {
		t = c.last.Add(time.Nanosecond)
	}
	c.last = t
	return t
}
