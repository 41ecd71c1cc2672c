package ledger

import "time"

// Clock supplies nanosecond timestamps for log entries and events.
// Tests substitute a deterministic implementation.
type Clock interface {
	NowNanos() int64
}

// wallClock reads the system clock.
type wallClock struct{}

func (wallClock) NowNanos() int64 { return time.Now().UnixNano() }
