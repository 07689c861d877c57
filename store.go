package tally

import (
	"maps"
	"math"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/tally/internal/sentinel"
	"github.com/hyp3rd/tally/pkg/distribution"
	"github.com/hyp3rd/tally/pkg/stopwatch"
)

// Store keeps counters, sample distributions and duration distributions by event name.
// The three namespaces are independent: the same name may hold a counter, a sample
// series and a duration series at once. Series are created on first write.
//
// Store is not safe for concurrent use; wrap it with NewSynchronized, or use New.
type Store struct {
	clock     clock.Clock
	samples   map[string]distribution.Distribution
	durations map[string]distribution.Distribution
	counters  map[string]int64
}

// NewStore creates an empty, unsynchronized store.
func NewStore(options ...Option) *Store {
	store := &Store{
		clock:     clock.New(),
		samples:   make(map[string]distribution.Distribution),
		durations: make(map[string]distribution.Distribution),
		counters:  make(map[string]int64),
	}

	ApplyOptions(store, options...)

	return store
}

// New creates a store guarded by a reader/writer lock, safe for concurrent use.
func New(options ...Option) *Synchronized {
	return NewSynchronized(NewStore(options...))
}

// StartStopwatch returns a stopwatch started now on the store clock.
func (s *Store) StartStopwatch() stopwatch.Stopwatch {
	return stopwatch.Start(s.clock)
}

// RecordElapsedTime adds the elapsed time of sw, in milliseconds, to the named duration series.
func (s *Store) RecordElapsedTime(name string, sw stopwatch.Stopwatch) error {
	err := validateName(name)
	if err != nil {
		return err
	}

	s.durations[name] = s.durations[name].WithSample(sw.ElapsedMillis())

	return nil
}

// AddOccurrence increments the named counter by one.
func (s *Store) AddOccurrence(name string) error {
	return s.AddOccurrences(name, 1)
}

// AddOccurrences increments the named counter by n. A delta that would push the counter
// past math.MaxInt64 is rejected and the counter keeps its value.
func (s *Store) AddOccurrences(name string, n int64) error {
	err := validateName(name)
	if err != nil {
		return err
	}

	if n < 0 {
		return ewrap.Wrapf(sentinel.ErrNegativeOccurrences, "event %q: %d", name, n)
	}

	if s.counters[name] > math.MaxInt64-n {
		return ewrap.Wrapf(sentinel.ErrCounterOverflow, "event %q: %d + %d", name, s.counters[name], n)
	}

	s.counters[name] += n

	return nil
}

// AddSample adds value to the named sample series. NaN and infinite values are rejected.
func (s *Store) AddSample(name string, value float64) error {
	err := validateName(name)
	if err != nil {
		return err
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ewrap.Wrapf(sentinel.ErrInvalidSample, "event %q", name)
	}

	s.samples[name] = s.samples[name].WithSample(value)

	return nil
}

// FindStatistic returns the named sample series, or an empty distribution.
func (s *Store) FindStatistic(name string) distribution.Distribution {
	return s.samples[name]
}

// FindDuration returns the named duration series, or an empty distribution.
func (s *Store) FindDuration(name string) distribution.Distribution {
	return s.durations[name]
}

// FindOccurrence returns the named counter, or 0.
func (s *Store) FindOccurrence(name string) int64 {
	return s.counters[name]
}

// Snapshot returns a deep copy of every series. Distributions are values, so cloning
// the maps is enough to make the snapshot independent of the store.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		takenAt:   s.clock.Now(),
		counters:  maps.Clone(s.counters),
		samples:   maps.Clone(s.samples),
		durations: maps.Clone(s.durations),
	}
}

// SnapshotAndReset hands the current maps over to the snapshot and starts empty ones.
func (s *Store) SnapshotAndReset() Snapshot {
	snap := Snapshot{
		takenAt:   s.clock.Now(),
		counters:  s.counters,
		samples:   s.samples,
		durations: s.durations,
	}

	s.Reset()

	return snap
}

// OccurrencesSnapshot returns a copy of the counters.
func (s *Store) OccurrencesSnapshot() map[string]int64 {
	return maps.Clone(s.counters)
}

// OccurrencesSnapshotAndReset returns the counters and clears them.
func (s *Store) OccurrencesSnapshotAndReset() map[string]int64 {
	counters := s.counters
	s.counters = make(map[string]int64)

	return counters
}

// Reset clears every series.
func (s *Store) Reset() {
	s.samples = make(map[string]distribution.Distribution)
	s.durations = make(map[string]distribution.Distribution)
	s.counters = make(map[string]int64)
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ewrap.Wrapf(sentinel.ErrInvalidEventName, "%q", name)
	}

	return nil
}
