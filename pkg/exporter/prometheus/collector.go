// Package prometheus provides a prometheus.Collector over a tally store.
//
// Counters are exposed as counters, samples and durations as summaries without quantiles
// (count and sum) plus min, max, mean and stddev gauges. Every metric carries an "event"
// label. The collector reads Snapshot on every scrape and never resets the store.
package prometheus

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hyp3rd/tally"
	"github.com/hyp3rd/tally/pkg/distribution"
)

const eventLabel = "event"

type snapshotSource interface {
	Snapshot() tally.Snapshot
}

type seriesDescs struct {
	summary *prometheus.Desc
	min     *prometheus.Desc
	max     *prometheus.Desc
	mean    *prometheus.Desc
	stddev  *prometheus.Desc
}

// Collector implements prometheus.Collector.
type Collector struct {
	source    snapshotSource
	counter   *prometheus.Desc
	samples   seriesDescs
	durations seriesDescs
}

// Option configures a Collector.
type Option func(*options)

type options struct {
	namespace   string
	constLabels prometheus.Labels
}

// WithNamespace sets the metric name prefix (default "tally").
func WithNamespace(namespace string) Option {
	return func(o *options) { o.namespace = namespace }
}

// WithConstLabels adds labels to every metric.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(o *options) { o.constLabels = labels }
}

// NewCollector returns a collector reading source on every scrape.
func NewCollector(source snapshotSource, opts ...Option) *Collector {
	o := options{namespace: "tally"}
	for _, opt := range opts {
		opt(&o)
	}

	return &Collector{
		source: source,
		counter: prometheus.NewDesc(
			prometheus.BuildFQName(o.namespace, "", "occurrences_total"),
			"Occurrences counted since the last reset.",
			[]string{eventLabel}, o.constLabels),
		samples:   newSeriesDescs(o, "sample", "Recorded sample values."),
		durations: newSeriesDescs(o, "duration_milliseconds", "Recorded durations in milliseconds."),
	}
}

func newSeriesDescs(o options, subsystem, help string) seriesDescs {
	desc := func(name, suffix string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(o.namespace, subsystem, name),
			help+suffix,
			[]string{eventLabel}, o.constLabels)
	}

	return seriesDescs{
		summary: prometheus.NewDesc(prometheus.BuildFQName(o.namespace, "", subsystem), help,
			[]string{eventLabel}, o.constLabels),
		min:    desc("min", " Smallest value."),
		max:    desc("max", " Largest value."),
		mean:   desc("mean", " Arithmetic mean."),
		stddev: desc("stddev", " Sample standard deviation."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.counter

	for _, s := range []seriesDescs{c.samples, c.durations} {
		ch <- s.summary
		ch <- s.min
		ch <- s.max
		ch <- s.mean
		ch <- s.stddev
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.source.Snapshot()

	for _, name := range snap.CounterNames() {
		count, _ := snap.Counter(name)
		ch <- prometheus.MustNewConstMetric(c.counter, prometheus.CounterValue, float64(count), name)
	}

	for _, name := range snap.SampleNames() {
		d, _ := snap.Sample(name)
		collectSeries(ch, c.samples, name, d)
	}

	for _, name := range snap.DurationNames() {
		d, _ := snap.Duration(name)
		collectSeries(ch, c.durations, name, d)
	}
}

// collectSeries skips gauges whose value is not finite.
func collectSeries(ch chan<- prometheus.Metric, descs seriesDescs, name string, d distribution.Distribution) {
	sum := d.Sum()
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		sum = 0
	}

	ch <- prometheus.MustNewConstSummary(descs.summary, uint64(d.Count()), sum, nil, name)

	for _, g := range []struct {
		desc  *prometheus.Desc
		value float64
	}{
		{descs.min, d.Min()},
		{descs.max, d.Max()},
		{descs.mean, d.Mean()},
		{descs.stddev, d.StdDev()},
	} {
		if math.IsNaN(g.value) || math.IsInf(g.value, 0) {
			continue
		}

		ch <- prometheus.MustNewConstMetric(g.desc, prometheus.GaugeValue, g.value, name)
	}
}
