package testutil

import "sync"

// DeterministicClock provides a thread-safe monotonic nanosecond clock for
// tests. Each reading advances by a fixed step, so log timestamps and event
// times are reproducible across runs.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	now  int64
	step int64
}

// NewDeterministicClock creates a clock starting at start, advancing by step
// nanoseconds per reading.
func NewDeterministicClock(start, step int64) *DeterministicClock {
	return &DeterministicClock{now: start, step: step}
}

// NowNanos advances the clock by one step and returns the new time.
// Monotonic: successive readings strictly increase for positive steps.
func (c *DeterministicClock) NowNanos() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += c.step
	return c.now
}

// Current returns the last reading without advancing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock to start.
func (c *DeterministicClock) Reset(start int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = start
}
