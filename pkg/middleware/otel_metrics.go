package middleware

import (
	"context"
	"time"

	"github.com/hyp3rd/ewrap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hyp3rd/tally"
	"github.com/hyp3rd/tally/internal/sentinel"
	"github.com/hyp3rd/tally/internal/telemetry/attrs"
	"github.com/hyp3rd/tally/pkg/distribution"
	"github.com/hyp3rd/tally/pkg/stopwatch"
)

// OTelMetricsMiddleware emits OpenTelemetry metrics about the Statistics calls themselves:
// how many were made, how long each took and whether it was rejected.
type OTelMetricsMiddleware struct {
	next  tally.Statistics
	meter metric.Meter

	// instruments
	calls     metric.Int64Counter
	durations metric.Float64Histogram
}

// NewOTelMetricsMiddleware constructs a metrics middleware using the provided meter.
func NewOTelMetricsMiddleware(next tally.Statistics, meter metric.Meter) (tally.Statistics, error) {
	if meter == nil {
		return nil, sentinel.ErrNilMeter
	}

	calls, err := meter.Int64Counter("tally.calls",
		metric.WithDescription("Number of Statistics calls"))
	if err != nil {
		return nil, ewrap.Wrap(err, "create counter")
	}

	durations, err := meter.Float64Histogram("tally.call.duration",
		metric.WithDescription("Statistics call latency"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, ewrap.Wrap(err, "create histogram")
	}

	return &OTelMetricsMiddleware{next: next, meter: meter, calls: calls, durations: durations}, nil
}

// StartStopwatch forwards without recording.
func (mw *OTelMetricsMiddleware) StartStopwatch() stopwatch.Stopwatch {
	return mw.next.StartStopwatch()
}

// RecordElapsedTime implements Statistics.RecordElapsedTime with metrics.
func (mw *OTelMetricsMiddleware) RecordElapsedTime(name string, sw stopwatch.Stopwatch) error {
	start := time.Now()
	err := mw.next.RecordElapsedTime(name, sw)
	mw.rec("RecordElapsedTime", start, attribute.Bool(attrs.AttrInvalid, err != nil))

	return err
}

// AddOccurrence implements Statistics.AddOccurrence with metrics.
func (mw *OTelMetricsMiddleware) AddOccurrence(name string) error {
	start := time.Now()
	err := mw.next.AddOccurrence(name)
	mw.rec("AddOccurrence", start, attribute.Bool(attrs.AttrInvalid, err != nil))

	return err
}

// AddOccurrences implements Statistics.AddOccurrences with metrics.
func (mw *OTelMetricsMiddleware) AddOccurrences(name string, n int64) error {
	start := time.Now()
	err := mw.next.AddOccurrences(name, n)
	mw.rec("AddOccurrences", start, attribute.Bool(attrs.AttrInvalid, err != nil))

	return err
}

// AddSample implements Statistics.AddSample with metrics.
func (mw *OTelMetricsMiddleware) AddSample(name string, value float64) error {
	start := time.Now()
	err := mw.next.AddSample(name, value)
	mw.rec("AddSample", start, attribute.Bool(attrs.AttrInvalid, err != nil))

	return err
}

// FindStatistic implements Statistics.FindStatistic with metrics.
func (mw *OTelMetricsMiddleware) FindStatistic(name string) distribution.Distribution {
	start := time.Now()
	d := mw.next.FindStatistic(name)
	mw.rec("FindStatistic", start)

	return d
}

// FindDuration implements Statistics.FindDuration with metrics.
func (mw *OTelMetricsMiddleware) FindDuration(name string) distribution.Distribution {
	start := time.Now()
	d := mw.next.FindDuration(name)
	mw.rec("FindDuration", start)

	return d
}

// FindOccurrence implements Statistics.FindOccurrence with metrics.
func (mw *OTelMetricsMiddleware) FindOccurrence(name string) int64 {
	start := time.Now()
	n := mw.next.FindOccurrence(name)
	mw.rec("FindOccurrence", start)

	return n
}

// Snapshot implements Statistics.Snapshot with metrics.
func (mw *OTelMetricsMiddleware) Snapshot() tally.Snapshot {
	start := time.Now()
	snap := mw.next.Snapshot()
	mw.rec("Snapshot", start)

	return snap
}

// SnapshotAndReset implements Statistics.SnapshotAndReset with metrics.
func (mw *OTelMetricsMiddleware) SnapshotAndReset() tally.Snapshot {
	start := time.Now()
	snap := mw.next.SnapshotAndReset()
	mw.rec("SnapshotAndReset", start)

	return snap
}

// OccurrencesSnapshot implements Statistics.OccurrencesSnapshot with metrics.
func (mw *OTelMetricsMiddleware) OccurrencesSnapshot() map[string]int64 {
	start := time.Now()
	counters := mw.next.OccurrencesSnapshot()
	mw.rec("OccurrencesSnapshot", start)

	return counters
}

// OccurrencesSnapshotAndReset implements Statistics.OccurrencesSnapshotAndReset with metrics.
func (mw *OTelMetricsMiddleware) OccurrencesSnapshotAndReset() map[string]int64 {
	start := time.Now()
	counters := mw.next.OccurrencesSnapshotAndReset()
	mw.rec("OccurrencesSnapshotAndReset", start)

	return counters
}

// Reset implements Statistics.Reset with metrics.
func (mw *OTelMetricsMiddleware) Reset() {
	start := time.Now()
	mw.next.Reset()
	mw.rec("Reset", start)
}

func (mw *OTelMetricsMiddleware) rec(method string, start time.Time, extra ...attribute.KeyValue) {
	base := []attribute.KeyValue{attribute.String(attrs.AttrMethod, method)}
	if len(extra) > 0 {
		base = append(base, extra...)
	}

	ctx := context.Background()
	mw.calls.Add(ctx, 1, metric.WithAttributes(base...))
	mw.durations.Record(ctx, float64(time.Since(start).Microseconds())/1000, metric.WithAttributes(base...))
}
