// Package tally is an in-process metrics accumulator.
//
// It records event occurrences, numeric samples and elapsed-time durations under string
// names and exposes timestamped snapshots of the running statistics of each series
// (count, min, max, mean, variance, standard deviation). Raw samples are never kept.
//
// Store is the plain accumulator; Synchronized guards any Statistics with a reader/writer
// lock. New returns a synchronized store ready for concurrent use.
package tally

import (
	"github.com/hyp3rd/tally/internal/sentinel"
	"github.com/hyp3rd/tally/pkg/distribution"
	"github.com/hyp3rd/tally/pkg/stopwatch"
)

var (
	// ErrInvalidEventName is returned when an event name is empty or blank.
	ErrInvalidEventName = sentinel.ErrInvalidEventName
	// ErrNegativeOccurrences is returned when an occurrence delta is negative.
	ErrNegativeOccurrences = sentinel.ErrNegativeOccurrences
	// ErrInvalidSample is returned when a sample is NaN or infinite.
	ErrInvalidSample = sentinel.ErrInvalidSample
	// ErrCounterOverflow is returned when a counter would exceed math.MaxInt64.
	ErrCounterOverflow = sentinel.ErrCounterOverflow
	// ErrPoolClosed is returned when a job is enqueued after the pool shut down.
	ErrPoolClosed = sentinel.ErrPoolClosed
	// ErrReporterRunning is returned when a reporter is started twice.
	ErrReporterRunning = sentinel.ErrReporterRunning
	// ErrInvalidInterval is returned when a reporter interval is not positive.
	ErrInvalidInterval = sentinel.ErrInvalidInterval
)

// Statistics is the accumulator interface.
// It enables middleware to be added around a store.
type Statistics interface {
	recorder
	finder

	// Snapshot returns an independent, timestamped copy of all series.
	Snapshot() Snapshot
	// SnapshotAndReset returns a snapshot and clears every series in one step.
	SnapshotAndReset() Snapshot
	// OccurrencesSnapshot returns a copy of the counters.
	OccurrencesSnapshot() map[string]int64
	// OccurrencesSnapshotAndReset returns a copy of the counters and clears them. Distributions are kept.
	OccurrencesSnapshotAndReset() map[string]int64
	// Reset clears every series.
	Reset()
}

type recorder interface {
	// StartStopwatch returns a running stopwatch on the store clock. It does not touch the store.
	StartStopwatch() stopwatch.Stopwatch
	// RecordElapsedTime adds the stopwatch elapsed time, in milliseconds, to the named duration series.
	RecordElapsedTime(name string, sw stopwatch.Stopwatch) error
	// AddOccurrence increments the named counter by one.
	AddOccurrence(name string) error
	// AddOccurrences increments the named counter by n, which must not be negative
	// and must not overflow the counter.
	AddOccurrences(name string, n int64) error
	// AddSample adds value to the named sample series. The value must be finite.
	AddSample(name string, value float64) error
}

type finder interface {
	// FindStatistic returns the named sample series, or an empty distribution.
	FindStatistic(name string) distribution.Distribution
	// FindDuration returns the named duration series, or an empty distribution.
	FindDuration(name string) distribution.Distribution
	// FindOccurrence returns the named counter, or 0.
	FindOccurrence(name string) int64
}

// Middleware describes a Statistics middleware.
type Middleware func(Statistics) Statistics

// ApplyMiddleware applies middlewares to a Statistics, first one innermost.
func ApplyMiddleware(stats Statistics, mw ...Middleware) Statistics {
	for _, m := range mw {
		stats = m(stats)
	}

	return stats
}
