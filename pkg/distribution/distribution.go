// Package distribution provides an immutable running summary of a numeric series.
//
// A Distribution never stores the samples it was built from. Each call to WithSample
// returns a new value carrying the updated count, extremes, mean and sum of squared
// deviations, computed with Welford's single-pass update.
//
// The zero value is the empty distribution:
//   - Min is +Inf and Max is -Inf
//   - Mean and Sum are 0
//   - Variance and StdDev are NaN (they need at least two samples)
package distribution

import (
	"fmt"
	"math"
)

// Distribution holds the running moments of one series. It is a value type: copies are
// independent and safe to share between goroutines.
type Distribution struct {
	count         int64
	minimum       float64
	maximum       float64
	mean          float64
	totalVariance float64 // sum of squared deviations from the running mean
	shift         float64 // first sample, used to keep Sum accurate for large offsets
	shiftedSum    float64 // sum of (sample - shift)
}

// Empty returns a distribution without samples.
func Empty() Distribution {
	return Distribution{}
}

// Of returns the distribution of the given values, in order.
func Of(values ...float64) Distribution {
	d := Empty()
	for _, v := range values {
		d = d.WithSample(v)
	}

	return d
}

// WithSample returns a new distribution that includes value. The receiver is not modified.
// value must be finite: an infinite sample leaves Mean, Sum and Variance NaN from then on.
func (d Distribution) WithSample(value float64) Distribution {
	if d.count == 0 {
		return Distribution{
			count:   1,
			minimum: value,
			maximum: value,
			mean:    value,
			shift:   value,
		}
	}

	updatedCount := d.count + 1
	updatedMean := d.mean + (value-d.mean)/float64(updatedCount)
	// old mean in the first factor, new mean in the second
	updatedTotalVariance := d.totalVariance + (value-d.mean)*(value-updatedMean)

	return Distribution{
		count:         updatedCount,
		minimum:       math.Min(d.minimum, value),
		maximum:       math.Max(d.maximum, value),
		mean:          updatedMean,
		totalVariance: updatedTotalVariance,
		shift:         d.shift,
		shiftedSum:    d.shiftedSum + (value - d.shift),
	}
}

// IsEmpty reports whether no sample was recorded.
func (d Distribution) IsEmpty() bool {
	return d.count <= 0
}

// Count returns the number of samples.
func (d Distribution) Count() int64 {
	return d.count
}

// Min returns the smallest sample, or +Inf when empty.
func (d Distribution) Min() float64 {
	if d.IsEmpty() {
		return math.Inf(1)
	}

	return d.minimum
}

// Max returns the largest sample, or -Inf when empty.
func (d Distribution) Max() float64 {
	if d.IsEmpty() {
		return math.Inf(-1)
	}

	return d.maximum
}

// Mean returns the arithmetic mean, or 0 when empty.
func (d Distribution) Mean() float64 {
	return d.mean
}

// Sum returns the total of all samples.
func (d Distribution) Sum() float64 {
	if d.IsEmpty() {
		return 0
	}

	return d.shift*float64(d.count) + d.shiftedSum
}

// TotalVariance returns the sum of squared deviations from the mean.
func (d Distribution) TotalVariance() float64 {
	return d.totalVariance
}

// Variance returns the unbiased sample variance, or NaN with fewer than two samples.
func (d Distribution) Variance() float64 {
	if d.count < 2 {
		return math.NaN()
	}

	return d.totalVariance / float64(d.count-1)
}

// StdDev returns the sample standard deviation, or NaN with fewer than two samples.
func (d Distribution) StdDev() float64 {
	return math.Sqrt(d.Variance())
}

// String implements fmt.Stringer.
func (d Distribution) String() string {
	return fmt.Sprintf("Distribution[count=%d, min=%g, max=%g, mean=%g, stddev=%g]",
		d.count, d.Min(), d.Max(), d.Mean(), d.StdDev())
}
