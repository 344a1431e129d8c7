package eventlog

import (
	"sync"
	"time"

	"wax/internal/services"
)

// Clock is the single time origin of a session. It is marked exactly once,
// while the calibration marker is still on screen.
type Clock struct {
	mu     sync.Mutex
	now    func() time.Time
	origin time.Time
	marked bool
}

// NewClock returns an unmarked clock reading time.Now.
func NewClock() *Clock {
	return NewClockWithNow(time.Now)
}

// NewClockWithNow returns an unmarked clock that reads now.
func NewClockWithNow(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Now reads the clock's time source.
func (c *Clock) Now() time.Time {
	return c.now()
}

// Mark captures the origin. A second call fails and leaves the origin unchanged.
func (c *Clock) Mark() (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.marked {
		return c.origin, services.Wrap(services.ErrStartFailed, "clock", "mark", "Session clock already marked", nil)
	}
	c.origin = c.now()
	c.marked = true
	return c.origin, nil
}

// Origin returns the origin and whether it has been captured.
func (c *Clock) Origin() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.origin, c.marked
}

// Elapsed returns seconds since the origin as of now.
func (c *Clock) Elapsed() (float64, bool) {
	return c.Offset(c.now())
}

// Offset converts t to seconds since the origin.
func (c *Clock) Offset(t time.Time) (float64, bool) {
	origin, ok := c.Origin()
	if !ok {
		return 0, false
	}
	return t.Sub(origin).Seconds(), true
}

// HostOffset maps a timestamp taken on an external host clock onto the
// session clock. hostNow is the host clock reading at the moment the event was
// received, which happened at receivedAt on the local clock.
func (c *Clock) HostOffset(receivedAt time.Time, hostNow, hostT float64) (float64, bool) {
	base, ok := c.Offset(receivedAt)
	if !ok {
		return 0, false
	}
	return base - (hostNow - hostT), true
}

// Seconds turns an optional offset into a log value: the offset, or nil.
func Seconds(value float64, ok bool) any {
	if !ok {
		return nil
	}
	return value
}
