package tally

import (
	"sync"

	"github.com/hyp3rd/tally/pkg/distribution"
	"github.com/hyp3rd/tally/pkg/stopwatch"
)

// Synchronized guards a Statistics with a reader/writer lock.
// Lookups and plain snapshots share the lock; every mutation, including the
// snapshot-and-reset operations, holds it exclusively. Each method acquires the
// lock exactly once and calls the wrapped Statistics once.
type Synchronized struct {
	mu    sync.RWMutex // serializes writers, admits concurrent readers
	inner Statistics
}

// NewSynchronized wraps inner. inner must not be used directly afterwards.
func NewSynchronized(inner Statistics) *Synchronized {
	return &Synchronized{inner: inner}
}

// StartStopwatch does not read or write the store and takes no lock.
func (s *Synchronized) StartStopwatch() stopwatch.Stopwatch {
	return s.inner.StartStopwatch()
}

// RecordElapsedTime adds the elapsed time of sw to the named duration series.
func (s *Synchronized) RecordElapsedTime(name string, sw stopwatch.Stopwatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.RecordElapsedTime(name, sw)
}

// AddOccurrence increments the named counter by one.
func (s *Synchronized) AddOccurrence(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.AddOccurrence(name)
}

// AddOccurrences increments the named counter by n.
func (s *Synchronized) AddOccurrences(name string, n int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.AddOccurrences(name, n)
}

// AddSample adds value to the named sample series.
func (s *Synchronized) AddSample(name string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.AddSample(name, value)
}

// FindStatistic returns the named sample series, or an empty distribution.
func (s *Synchronized) FindStatistic(name string) distribution.Distribution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.inner.FindStatistic(name)
}

// FindDuration returns the named duration series, or an empty distribution.
func (s *Synchronized) FindDuration(name string) distribution.Distribution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.inner.FindDuration(name)
}

// FindOccurrence returns the named counter, or 0.
func (s *Synchronized) FindOccurrence(name string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.inner.FindOccurrence(name)
}

// Snapshot returns an independent copy of every series.
func (s *Synchronized) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.inner.Snapshot()
}

// SnapshotAndReset captures and clears every series in one critical section.
func (s *Synchronized) SnapshotAndReset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.SnapshotAndReset()
}

// OccurrencesSnapshot returns a copy of the counters.
func (s *Synchronized) OccurrencesSnapshot() map[string]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.inner.OccurrencesSnapshot()
}

// OccurrencesSnapshotAndReset captures and clears the counters in one critical section.
func (s *Synchronized) OccurrencesSnapshotAndReset() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.OccurrencesSnapshotAndReset()
}

// Reset clears every series.
func (s *Synchronized) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inner.Reset()
}
