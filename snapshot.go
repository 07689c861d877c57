package tally

import (
	"maps"
	"slices"
	"time"

	"github.com/hyp3rd/tally/pkg/distribution"
)

// Snapshot is an immutable, timestamped copy of every series of a store.
// The zero value is an empty snapshot.
type Snapshot struct {
	takenAt   time.Time
	counters  map[string]int64
	samples   map[string]distribution.Distribution
	durations map[string]distribution.Distribution
}

// TakenAt returns the time the snapshot was captured.
func (s Snapshot) TakenAt() time.Time {
	return s.takenAt
}

// IsEmpty reports whether the snapshot holds no series at all.
func (s Snapshot) IsEmpty() bool {
	return len(s.counters) == 0 && len(s.samples) == 0 && len(s.durations) == 0
}

// Counter returns the named counter and whether it was present.
func (s Snapshot) Counter(name string) (int64, bool) {
	v, ok := s.counters[name]

	return v, ok
}

// Sample returns the named sample series and whether it was present.
func (s Snapshot) Sample(name string) (distribution.Distribution, bool) {
	d, ok := s.samples[name]

	return d, ok
}

// Duration returns the named duration series and whether it was present.
func (s Snapshot) Duration(name string) (distribution.Distribution, bool) {
	d, ok := s.durations[name]

	return d, ok
}

// Counters returns a copy of the counters.
func (s Snapshot) Counters() map[string]int64 {
	return cloneOrEmpty(s.counters)
}

// Samples returns a copy of the sample series.
func (s Snapshot) Samples() map[string]distribution.Distribution {
	return cloneOrEmpty(s.samples)
}

// Durations returns a copy of the duration series.
func (s Snapshot) Durations() map[string]distribution.Distribution {
	return cloneOrEmpty(s.durations)
}

// CounterNames returns the counter names in lexicographic order.
func (s Snapshot) CounterNames() []string {
	return slices.Sorted(maps.Keys(s.counters))
}

// SampleNames returns the sample series names in lexicographic order.
func (s Snapshot) SampleNames() []string {
	return slices.Sorted(maps.Keys(s.samples))
}

// DurationNames returns the duration series names in lexicographic order.
func (s Snapshot) DurationNames() []string {
	return slices.Sorted(maps.Keys(s.durations))
}

// CounterEntry is one named counter of a Report.
type CounterEntry struct {
	Name  string `json:"name"  msgpack:"name"`
	Count int64  `json:"count" msgpack:"count"`
}

// SeriesEntry is one named distribution of a Report.
type SeriesEntry struct {
	Name    string               `json:"name"    msgpack:"name"`
	Summary distribution.Summary `json:"summary" msgpack:"summary"`
}

// Report is the export form of a Snapshot: every series ordered by name.
type Report struct {
	TakenAt   time.Time      `json:"takenAt"   msgpack:"takenAt"`
	Counters  []CounterEntry `json:"counters"  msgpack:"counters"`
	Samples   []SeriesEntry  `json:"samples"   msgpack:"samples"`
	Durations []SeriesEntry  `json:"durations" msgpack:"durations"`
}

// Report builds the export form of the snapshot.
func (s Snapshot) Report() Report {
	report := Report{
		TakenAt:   s.takenAt,
		Counters:  make([]CounterEntry, 0, len(s.counters)),
		Samples:   seriesEntries(s.samples),
		Durations: seriesEntries(s.durations),
	}

	for _, name := range s.CounterNames() {
		report.Counters = append(report.Counters, CounterEntry{Name: name, Count: s.counters[name]})
	}

	return report
}

func seriesEntries(series map[string]distribution.Distribution) []SeriesEntry {
	entries := make([]SeriesEntry, 0, len(series))
	for _, name := range slices.Sorted(maps.Keys(series)) {
		entries = append(entries, SeriesEntry{Name: name, Summary: series[name].Summary()})
	}

	return entries
}

func cloneOrEmpty[V any](m map[string]V) map[string]V {
	if m == nil {
		return make(map[string]V)
	}

	return maps.Clone(m)
}
