// Package middleware provides Statistics middlewares: call logging, OpenTelemetry tracing
// and OpenTelemetry call metrics. Each middleware wraps a tally.Statistics and forwards
// every call to it exactly once.
package middleware

import (
	"time"

	"github.com/hyp3rd/tally"
	"github.com/hyp3rd/tally/pkg/distribution"
	"github.com/hyp3rd/tally/pkg/stopwatch"
)

// LoggingMiddleware logs every call and the time it took. Rejected calls are logged as errors.
// Must implement the tally.Statistics interface.
type LoggingMiddleware struct {
	next   tally.Statistics
	logger tally.Logger
}

// NewLoggingMiddleware returns a new LoggingMiddleware.
func NewLoggingMiddleware(next tally.Statistics, logger tally.Logger) tally.Statistics {
	if logger == nil {
		logger = tally.NopLogger()
	}

	return &LoggingMiddleware{next: next, logger: logger}
}

// Logging returns a tally.Middleware installing a LoggingMiddleware.
func Logging(logger tally.Logger) tally.Middleware {
	return func(next tally.Statistics) tally.Statistics {
		return NewLoggingMiddleware(next, logger)
	}
}

func (mw LoggingMiddleware) done(method, name string, begin time.Time, err error) {
	if err != nil {
		mw.logger.Errorf("method %s(%q) failed after %s: %v", method, name, time.Since(begin), err)

		return
	}

	mw.logger.Debugf("method %s(%q) took: %s", method, name, time.Since(begin))
}

// StartStopwatch is not logged; it does not touch the store.
func (mw LoggingMiddleware) StartStopwatch() stopwatch.Stopwatch {
	return mw.next.StartStopwatch()
}

// RecordElapsedTime logs the call.
func (mw LoggingMiddleware) RecordElapsedTime(name string, sw stopwatch.Stopwatch) error {
	begin := time.Now()
	err := mw.next.RecordElapsedTime(name, sw)
	mw.done("RecordElapsedTime", name, begin, err)

	return err
}

// AddOccurrence logs the call.
func (mw LoggingMiddleware) AddOccurrence(name string) error {
	begin := time.Now()
	err := mw.next.AddOccurrence(name)
	mw.done("AddOccurrence", name, begin, err)

	return err
}

// AddOccurrences logs the call.
func (mw LoggingMiddleware) AddOccurrences(name string, n int64) error {
	begin := time.Now()
	err := mw.next.AddOccurrences(name, n)
	mw.done("AddOccurrences", name, begin, err)

	return err
}

// AddSample logs the call.
func (mw LoggingMiddleware) AddSample(name string, value float64) error {
	begin := time.Now()
	err := mw.next.AddSample(name, value)
	mw.done("AddSample", name, begin, err)

	return err
}

// FindStatistic forwards without logging.
func (mw LoggingMiddleware) FindStatistic(name string) distribution.Distribution {
	return mw.next.FindStatistic(name)
}

// FindDuration forwards without logging.
func (mw LoggingMiddleware) FindDuration(name string) distribution.Distribution {
	return mw.next.FindDuration(name)
}

// FindOccurrence forwards without logging.
func (mw LoggingMiddleware) FindOccurrence(name string) int64 {
	return mw.next.FindOccurrence(name)
}

// Snapshot logs the call.
func (mw LoggingMiddleware) Snapshot() tally.Snapshot {
	defer func(begin time.Time) {
		mw.logger.Debugf("method Snapshot took: %s", time.Since(begin))
	}(time.Now())

	return mw.next.Snapshot()
}

// SnapshotAndReset logs the call.
func (mw LoggingMiddleware) SnapshotAndReset() tally.Snapshot {
	defer func(begin time.Time) {
		mw.logger.Infof("method SnapshotAndReset took: %s", time.Since(begin))
	}(time.Now())

	return mw.next.SnapshotAndReset()
}

// OccurrencesSnapshot logs the call.
func (mw LoggingMiddleware) OccurrencesSnapshot() map[string]int64 {
	defer func(begin time.Time) {
		mw.logger.Debugf("method OccurrencesSnapshot took: %s", time.Since(begin))
	}(time.Now())

	return mw.next.OccurrencesSnapshot()
}

// OccurrencesSnapshotAndReset logs the call.
func (mw LoggingMiddleware) OccurrencesSnapshotAndReset() map[string]int64 {
	defer func(begin time.Time) {
		mw.logger.Infof("method OccurrencesSnapshotAndReset took: %s", time.Since(begin))
	}(time.Now())

	return mw.next.OccurrencesSnapshotAndReset()
}

// Reset logs the call.
func (mw LoggingMiddleware) Reset() {
	defer func(begin time.Time) {
		mw.logger.Infof("method Reset took: %s", time.Since(begin))
	}(time.Now())

	mw.next.Reset()
}
