package cadence

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// TimeStamp is a point on a Clock's timeline, in nanoseconds since its origin
type TimeStamp int64

// Origin is the timestamp of a freshly started Clock
const Origin TimeStamp = 0

// Add returns t moved forward by d. It panics with ClockOverflowError past the representable range.
func (t TimeStamp) Add(d time.Duration) TimeStamp {
	if d > 0 && int64(t) > math.MaxInt64-int64(d) {
		panic(ClockOverflowError{})
	}
	if d < 0 && int64(t) < math.MinInt64-int64(d) {
		panic(ClockOverflowError{})
	}
	return t + TimeStamp(d)
}

// Sub returns the span from o to t
func (t TimeStamp) Sub(o TimeStamp) time.Duration {
	return time.Duration(t - o)
}

// Duration returns the time elapsed since Origin
func (t TimeStamp) Duration() time.Duration {
	return time.Duration(t)
}

func (t TimeStamp) String() string {
	return fmt.Sprintf("T+%v", time.Duration(t))
}

// ClockIndex is the clock reading handed to systems for one run
type ClockIndex struct {
	// Delta since the previous reading
	Delta time.Duration
	// Now is the time elapsed since the clock started
	Now TimeStamp
}

// SystemTimeSource reads the process wall clock, which carries Go's monotonic reading
type SystemTimeSource struct{}

func (SystemTimeSource) Now() time.Time {
	return time.Now()
}

// ManualTimeSource is a TimeSource that only moves when told to
type ManualTimeSource struct {
	mu  sync.RWMutex
	now time.Time
}

func NewManualTimeSource(start time.Time) *ManualTimeSource {
	return &ManualTimeSource{now: start}
}

func (m *ManualTimeSource) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

func (m *ManualTimeSource) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

func (m *ManualTimeSource) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Clock measures the time of a game session. Successive Advance calls never go backwards.
type Clock struct {
	source TimeSource
	start  time.Time
	now    TimeStamp
}

// NewClock creates a clock anchored at the current instant
func NewClock() *Clock {
	return NewClockWithSource(SystemTimeSource{})
}

func NewClockWithSource(source TimeSource) *Clock {
	return &Clock{
		source: source,
		start:  source.Now(),
		now:    Origin,
	}
}

// Advance reads the source and returns the delta since the previous reading.
// It panics with NonMonotonicClockError if the source went backwards.
func (c *Clock) Advance() ClockIndex {
	now := c.elapsed(c.source.Now())
	if now < c.now {
		panic(NonMonotonicClockError{Previous: c.now, Current: now})
	}
	delta := now.Sub(c.now)
	c.now = now
	return ClockIndex{Delta: delta, Now: now}
}

// Restart moves the origin to the current instant
func (c *Clock) Restart() {
	c.start = c.source.Now()
	c.now = Origin
}

// RestartFrom moves the origin to start, which must not lie in the future
func (c *Clock) RestartFrom(start time.Time) {
	current := c.source.Now()
	if current.Before(start) {
		panic(FutureStartError{Start: start, Now: current})
	}
	c.start = start
	c.now = c.elapsed(current)
}

// Start returns the instant of the clock origin
func (c *Clock) Start() time.Time {
	return c.start
}

// Now returns the last reading without advancing
func (c *Clock) Now() TimeStamp {
	return c.now
}

// Instant converts a timestamp of this clock back to a wall-clock instant
func (c *Clock) Instant(ts TimeStamp) time.Time {
	return c.start.Add(ts.Duration())
}

func (c *Clock) elapsed(at time.Time) TimeStamp {
	if at.Before(c.start) {
		panic(NonMonotonicClockError{Previous: c.now, Current: TimeStamp(at.Sub(c.start))})
	}
	// time.Time.Sub saturates instead of overflowing
	d := at.Sub(c.start)
	if d == math.MaxInt64 {
		panic(ClockOverflowError{})
	}
	return Origin.Add(d)
}
