// Package stopwatch provides a disposable elapsed-time measurement.
package stopwatch

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Stopwatch captures a start instant and reports the time elapsed since then.
// It never stops or resets; start a new one for each measurement.
type Stopwatch struct {
	clock   clock.Clock
	started time.Time
}

// Start returns a stopwatch started now on clk. A nil clock means the wall clock,
// whose readings carry the monotonic component.
func Start(clk clock.Clock) Stopwatch {
	if clk == nil {
		clk = clock.New()
	}

	return Stopwatch{clock: clk, started: clk.Now()}
}

// StartNow returns a stopwatch started now on the wall clock.
func StartNow() Stopwatch {
	return Start(nil)
}

// StartedAt returns the start instant.
func (s Stopwatch) StartedAt() time.Time {
	return s.started
}

// Elapsed returns the time since the stopwatch was started. It is never negative.
// A zero Stopwatch reports zero.
func (s Stopwatch) Elapsed() time.Duration {
	if s.clock == nil {
		return 0
	}

	elapsed := s.clock.Since(s.started)
	if elapsed < 0 {
		return 0
	}

	return elapsed
}

// ElapsedMillis returns Elapsed in fractional milliseconds.
func (s Stopwatch) ElapsedMillis() float64 {
	return float64(s.Elapsed()) / float64(time.Millisecond)
}
