package tracking

import "time"

// Throttle is a next-eligible-time rate limiter. It is checked inline from
// the control loop rather than driven by a timer goroutine, so there is no
// race between a timer callback and loop-driven processing.
//
// Not safe for concurrent use; it belongs to the loop that polls it.
type Throttle struct {
	interval time.Duration
	next     time.Time
}

// NewThrottle creates a throttle allowing rate events per second.
func NewThrottle(rate float64) *Throttle {
	return &Throttle{
		interval: time.Duration(float64(time.Second) / rate),
	}
}

// Due reports whether an event is allowed at the given time, and if so
// arms the throttle for the next interval. The next eligible time counts
// from now, matching a last-run timestamp comparison.
func (t *Throttle) Due(now time.Time) bool {
	if now.Before(t.next) {
		return false
	}
	t.next = now.Add(t.interval)
	return true
}

// Interval returns the configured spacing between events.
func (t *Throttle) Interval() time.Duration {
	return t.interval
}
