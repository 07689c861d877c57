package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyp3rd/tally"
	"github.com/hyp3rd/tally/internal/telemetry/attrs"
	"github.com/hyp3rd/tally/pkg/distribution"
	"github.com/hyp3rd/tally/pkg/stopwatch"
)

// OTelTracingMiddleware wraps tally.Statistics mutations and snapshots with OpenTelemetry spans.
// Lookups are forwarded without a span.
type OTelTracingMiddleware struct {
	next   tally.Statistics
	tracer trace.Tracer
	// parent of every span; Statistics calls carry no context of their own
	parent context.Context
	// static attributes applied to all spans
	commonAttrs []attribute.KeyValue
}

// OTelTracingOption allows configuring the tracing middleware.
type OTelTracingOption func(*OTelTracingMiddleware)

// WithCommonAttributes sets attributes applied to all spans.
func WithCommonAttributes(attributes ...attribute.KeyValue) OTelTracingOption {
	return func(m *OTelTracingMiddleware) { m.commonAttrs = append(m.commonAttrs, attributes...) }
}

// WithParentContext sets the context spans are started from.
func WithParentContext(ctx context.Context) OTelTracingOption {
	return func(m *OTelTracingMiddleware) {
		if ctx != nil {
			m.parent = ctx
		}
	}
}

// NewOTelTracingMiddleware creates a tracing middleware.
func NewOTelTracingMiddleware(next tally.Statistics, tracer trace.Tracer, opts ...OTelTracingOption) tally.Statistics {
	mw := &OTelTracingMiddleware{next: next, tracer: tracer, parent: context.Background()}
	for _, o := range opts {
		o(mw)
	}

	return mw
}

// StartStopwatch forwards without a span.
func (mw OTelTracingMiddleware) StartStopwatch() stopwatch.Stopwatch {
	return mw.next.StartStopwatch()
}

// RecordElapsedTime implements Statistics.RecordElapsedTime with tracing.
func (mw OTelTracingMiddleware) RecordElapsedTime(name string, sw stopwatch.Stopwatch) error {
	span := mw.startSpan("tally.RecordElapsedTime",
		attribute.String(attrs.AttrEventName, name),
		attribute.Float64(attrs.AttrElapsedMS, sw.ElapsedMillis()))
	defer span.End()

	return recordError(span, mw.next.RecordElapsedTime(name, sw))
}

// AddOccurrence implements Statistics.AddOccurrence with tracing.
func (mw OTelTracingMiddleware) AddOccurrence(name string) error {
	span := mw.startSpan("tally.AddOccurrence", attribute.String(attrs.AttrEventName, name))
	defer span.End()

	return recordError(span, mw.next.AddOccurrence(name))
}

// AddOccurrences implements Statistics.AddOccurrences with tracing.
func (mw OTelTracingMiddleware) AddOccurrences(name string, n int64) error {
	span := mw.startSpan("tally.AddOccurrences",
		attribute.String(attrs.AttrEventName, name),
		attribute.Int64(attrs.AttrOccurrences, n))
	defer span.End()

	return recordError(span, mw.next.AddOccurrences(name, n))
}

// AddSample implements Statistics.AddSample with tracing.
func (mw OTelTracingMiddleware) AddSample(name string, value float64) error {
	span := mw.startSpan("tally.AddSample",
		attribute.String(attrs.AttrEventName, name),
		attribute.Float64(attrs.AttrSampleValue, value))
	defer span.End()

	return recordError(span, mw.next.AddSample(name, value))
}

// FindStatistic forwards without a span.
func (mw OTelTracingMiddleware) FindStatistic(name string) distribution.Distribution {
	return mw.next.FindStatistic(name)
}

// FindDuration forwards without a span.
func (mw OTelTracingMiddleware) FindDuration(name string) distribution.Distribution {
	return mw.next.FindDuration(name)
}

// FindOccurrence forwards without a span.
func (mw OTelTracingMiddleware) FindOccurrence(name string) int64 {
	return mw.next.FindOccurrence(name)
}

// Snapshot implements Statistics.Snapshot with tracing.
func (mw OTelTracingMiddleware) Snapshot() tally.Snapshot {
	span := mw.startSpan("tally.Snapshot")
	defer span.End()

	snap := mw.next.Snapshot()
	setSnapshotAttributes(span, snap)

	return snap
}

// SnapshotAndReset implements Statistics.SnapshotAndReset with tracing.
func (mw OTelTracingMiddleware) SnapshotAndReset() tally.Snapshot {
	span := mw.startSpan("tally.SnapshotAndReset")
	defer span.End()

	snap := mw.next.SnapshotAndReset()
	setSnapshotAttributes(span, snap)

	return snap
}

// OccurrencesSnapshot implements Statistics.OccurrencesSnapshot with tracing.
func (mw OTelTracingMiddleware) OccurrencesSnapshot() map[string]int64 {
	span := mw.startSpan("tally.OccurrencesSnapshot")
	defer span.End()

	counters := mw.next.OccurrencesSnapshot()
	span.SetAttributes(attribute.Int(attrs.AttrCountersCount, len(counters)))

	return counters
}

// OccurrencesSnapshotAndReset implements Statistics.OccurrencesSnapshotAndReset with tracing.
func (mw OTelTracingMiddleware) OccurrencesSnapshotAndReset() map[string]int64 {
	span := mw.startSpan("tally.OccurrencesSnapshotAndReset")
	defer span.End()

	counters := mw.next.OccurrencesSnapshotAndReset()
	span.SetAttributes(attribute.Int(attrs.AttrCountersCount, len(counters)))

	return counters
}

// Reset implements Statistics.Reset with tracing.
func (mw OTelTracingMiddleware) Reset() {
	span := mw.startSpan("tally.Reset")
	defer span.End()

	mw.next.Reset()
}

// startSpan starts a span with common and provided attributes.
func (mw OTelTracingMiddleware) startSpan(name string, attributes ...attribute.KeyValue) trace.Span {
	_, span := mw.tracer.Start(mw.parent, name, trace.WithSpanKind(trace.SpanKindInternal))
	if len(mw.commonAttrs) > 0 {
		span.SetAttributes(mw.commonAttrs...)
	}

	if len(attributes) > 0 {
		span.SetAttributes(attributes...)
	}

	return span
}

func setSnapshotAttributes(span trace.Span, snap tally.Snapshot) {
	span.SetAttributes(
		attribute.Int(attrs.AttrCountersCount, len(snap.CounterNames())),
		attribute.Int(attrs.AttrSamplesCount, len(snap.SampleNames())),
		attribute.Int(attrs.AttrDurationsCount, len(snap.DurationNames())),
	)
}

func recordError(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool(attrs.AttrInvalid, true))
	}

	return err
}
