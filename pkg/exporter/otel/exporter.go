// Package otel exposes tally statistics as OpenTelemetry observable instruments.
//
// The exporter reads Snapshot on every collection and never resets the store, so it can
// run next to a Reporter that does.
package otel

import (
	"context"
	"math"

	"github.com/hyp3rd/ewrap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hyp3rd/tally"
	"github.com/hyp3rd/tally/internal/sentinel"
	"github.com/hyp3rd/tally/internal/telemetry/attrs"
	"github.com/hyp3rd/tally/pkg/distribution"
)

type snapshotSource interface {
	Snapshot() tally.Snapshot
}

type observedSeries struct {
	count  metric.Int64ObservableGauge
	min    metric.Float64ObservableGauge
	max    metric.Float64ObservableGauge
	mean   metric.Float64ObservableGauge
	stddev metric.Float64ObservableGauge
}

// Exporter registers one callback observing every counter and series of a snapshot.
type Exporter struct {
	source       snapshotSource
	registration metric.Registration
	counter      metric.Int64ObservableGauge
	samples      observedSeries
	durations    observedSeries
}

// NewExporter creates the instruments on meter and registers the collection callback.
func NewExporter(meter metric.Meter, source snapshotSource) (*Exporter, error) {
	if meter == nil {
		return nil, sentinel.ErrNilMeter
	}

	if source == nil {
		return nil, sentinel.ErrNilStatistics
	}

	exporter := &Exporter{source: source}

	counter, err := meter.Int64ObservableGauge("tally.counter",
		metric.WithDescription("Occurrences counted since the last reset."))
	if err != nil {
		return nil, ewrap.Wrap(err, "create counter gauge")
	}

	exporter.counter = counter

	exporter.samples, err = newObservedSeries(meter, "tally.sample", "")
	if err != nil {
		return nil, err
	}

	exporter.durations, err = newObservedSeries(meter, "tally.duration", "ms")
	if err != nil {
		return nil, err
	}

	observables := []metric.Observable{counter}
	observables = append(observables, exporter.samples.observables()...)
	observables = append(observables, exporter.durations.observables()...)

	registration, err := meter.RegisterCallback(exporter.observe, observables...)
	if err != nil {
		return nil, ewrap.Wrap(err, "register callback")
	}

	exporter.registration = registration

	return exporter, nil
}

// Close unregisters the callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}

	return e.registration.Unregister()
}

func (e *Exporter) observe(_ context.Context, observer metric.Observer) error {
	snap := e.source.Snapshot()

	for name, count := range snap.Counters() {
		observer.ObserveInt64(e.counter, count, metric.WithAttributes(attribute.String(attrs.AttrEventName, name)))
	}

	for name, d := range snap.Samples() {
		e.samples.observe(observer, name, d)
	}

	for name, d := range snap.Durations() {
		e.durations.observe(observer, name, d)
	}

	return nil
}

func newObservedSeries(meter metric.Meter, prefix, unit string) (observedSeries, error) {
	var (
		s   observedSeries
		err error
	)

	s.count, err = meter.Int64ObservableGauge(prefix+".count", metric.WithDescription("Values recorded."))
	if err != nil {
		return s, ewrap.Wrapf(err, "create %s.count", prefix)
	}

	for _, g := range []struct {
		target *metric.Float64ObservableGauge
		name   string
		desc   string
	}{
		{&s.min, ".min", "Smallest value recorded."},
		{&s.max, ".max", "Largest value recorded."},
		{&s.mean, ".mean", "Arithmetic mean."},
		{&s.stddev, ".stddev", "Sample standard deviation."},
	} {
		opts := []metric.Float64ObservableGaugeOption{metric.WithDescription(g.desc)}
		if unit != "" {
			opts = append(opts, metric.WithUnit(unit))
		}

		*g.target, err = meter.Float64ObservableGauge(prefix+g.name, opts...)
		if err != nil {
			return s, ewrap.Wrapf(err, "create %s%s", prefix, g.name)
		}
	}

	return s, nil
}

func (s observedSeries) observables() []metric.Observable {
	return []metric.Observable{s.count, s.min, s.max, s.mean, s.stddev}
}

// observe skips statistics that are not finite: an empty series has no extremes and a
// single value has no deviation.
func (s observedSeries) observe(observer metric.Observer, name string, d distribution.Distribution) {
	opt := metric.WithAttributes(attribute.String(attrs.AttrEventName, name))

	observer.ObserveInt64(s.count, d.Count(), opt)

	for _, v := range []struct {
		gauge metric.Float64ObservableGauge
		value float64
	}{
		{s.min, d.Min()},
		{s.max, d.Max()},
		{s.mean, d.Mean()},
		{s.stddev, d.StdDev()},
	} {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			continue
		}

		observer.ObserveFloat64(v.gauge, v.value, opt)
	}
}
