// Package timing provides the monotonic clock the benchmarks are measured
// against. Durations are truncated to microseconds, the resolution of the
// timer the accelerator boards expose.
package timing

import (
	"sync"
	"time"
)

// Resolution is the smallest duration the clock reports.
const Resolution = time.Microsecond

// Clock reads a monotonic timestamp.
type Clock interface {
	Now() time.Time
}

// System reads the runtime's monotonic clock.
type System struct{}

// Now returns the current time.
func (System) Now() time.Time {
	return time.Now()
}

// Elapsed returns end-start truncated to Resolution.
func Elapsed(start, end time.Time) time.Duration {
	return end.Sub(start).Truncate(Resolution)
}

// Since returns the time elapsed on c since start, truncated to Resolution.
func Since(c Clock, start time.Time) time.Duration {
	return Elapsed(start, c.Now())
}

// Overhead measures the cost of taking a timestamp: two back-to-back reads.
// The first call in a process pays for lazy runtime setup, so callers
// should discard one measurement before trusting the result.
func Overhead(c Clock) time.Duration {
	start := c.Now()

	return Since(c, start)
}

// Manual is a Clock driven by the caller. Each call to Now advances the
// clock by the next scripted step, or by Step once the script runs out.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	steps []time.Duration
	Step  time.Duration
}

// NewManual returns a Manual clock starting at the Unix epoch that
// advances by the given steps on successive reads.
func NewManual(steps ...time.Duration) *Manual {
	return &Manual{
		now:   time.Unix(0, 0),
		steps: steps,
	}
}

// Now returns the current manual time, then advances it.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now

	step := m.Step
	if len(m.steps) > 0 {
		step = m.steps[0]
		m.steps = m.steps[1:]
	}

	m.now = m.now.Add(step)

	return now
}
