package distribution

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPass(values []float64) (mean, variance float64) {
	for _, v := range values {
		mean += v
	}

	mean /= float64(len(values))

	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}

	return mean, variance / float64(len(values)-1)
}

func TestEmpty(t *testing.T) {
	d := Empty()

	assert.True(t, d.IsEmpty())
	assert.Equal(t, int64(0), d.Count())
	assert.True(t, math.IsInf(d.Min(), 1))
	assert.True(t, math.IsInf(d.Max(), -1))
	assert.Zero(t, d.Mean())
	assert.Zero(t, d.Sum())
	assert.True(t, math.IsNaN(d.Variance()))
	assert.True(t, math.IsNaN(d.StdDev()))
}

func TestZeroValueIsEmpty(t *testing.T) {
	var d Distribution

	assert.Equal(t, Empty(), d)
	assert.True(t, d.IsEmpty())

	d = d.WithSample(-3)
	assert.Equal(t, -3.0, d.Min())
	assert.Equal(t, -3.0, d.Max())
}

func TestWithSample_Single(t *testing.T) {
	d := Empty().WithSample(5)

	assert.False(t, d.IsEmpty())
	assert.Equal(t, int64(1), d.Count())
	assert.Equal(t, 5.0, d.Min())
	assert.Equal(t, 5.0, d.Max())
	assert.Equal(t, 5.0, d.Mean())
	assert.Zero(t, d.TotalVariance())
	assert.True(t, math.IsNaN(d.Variance()), "variance needs two samples")
	assert.True(t, math.IsNaN(d.StdDev()), "stddev needs two samples")
}

func TestWithSample_Calculation(t *testing.T) {
	d := Of(5, 10, 15)

	assert.Equal(t, int64(3), d.Count())
	assert.Equal(t, 5.0, d.Min())
	assert.Equal(t, 15.0, d.Max())
	assert.InDelta(t, 10.0, d.Mean(), 0.01)
	assert.InDelta(t, 25.0, d.Variance(), 0.01)
	assert.InDelta(t, 5.0, d.StdDev(), 0.01)
	assert.InDelta(t, 30.0, d.Sum(), 1e-9)
}

func TestWithSample_DoesNotMutateReceiver(t *testing.T) {
	before := Of(1, 2)
	after := before.WithSample(100)

	assert.Equal(t, int64(2), before.Count())
	assert.Equal(t, 2.0, before.Max())
	assert.Equal(t, int64(3), after.Count())
	assert.Equal(t, 100.0, after.Max())
}

func TestWithSample_MatchesTwoPass(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for _, n := range []int{2, 3, 10, 1000, 50000} {
		values := make([]float64, n)
		for i := range values {
			values[i] = rng.NormFloat64()*250 + 1e6
		}

		d := Of(values...)
		mean, variance := twoPass(values)

		minVal, maxVal := values[0], values[0]
		for _, v := range values {
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}

		require.Equal(t, int64(n), d.Count())
		assert.Equal(t, minVal, d.Min())
		assert.Equal(t, maxVal, d.Max())
		assert.InDelta(t, mean, d.Mean(), 1e-9*math.Abs(mean))
		assert.InEpsilon(t, variance, d.Variance(), 1e-6)
		assert.InEpsilon(t, mean*float64(n), d.Sum(), 1e-10)
	}
}

func TestWithSample_ConstantSeries(t *testing.T) {
	d := Empty()
	for range 10000 {
		d = d.WithSample(0.1)
	}

	assert.InDelta(t, 0.1, d.Mean(), 1e-12)
	assert.InDelta(t, 0, d.Variance(), 1e-20)
	assert.InDelta(t, 0, d.StdDev(), 1e-10)
}

func TestSummary(t *testing.T) {
	empty := Empty().Summary()
	assert.Equal(t, Summary{}, empty)

	single := Of(4).Summary()
	require.NotNil(t, single.Min)
	require.NotNil(t, single.Mean)
	assert.Equal(t, int64(1), single.Count)
	assert.Equal(t, 4.0, *single.Min)
	assert.Nil(t, single.Variance)
	assert.Nil(t, single.StdDev)

	pair := Of(80, 150).Summary()
	require.NotNil(t, pair.Variance)
	require.NotNil(t, pair.StdDev)
	assert.InDelta(t, 2450.0, *pair.Variance, 1e-9)
	assert.InDelta(t, 49.497, *pair.StdDev, 1e-3)
}

func TestString(t *testing.T) {
	assert.Equal(t, "Distribution[count=2, min=1, max=3, mean=2, stddev=1.4142135623730951]", Of(1, 3).String())
	assert.Contains(t, Empty().String(), "stddev=NaN")
}

func TestSummary_String(t *testing.T) {
	assert.Equal(t, "count=0 min=- max=- mean=- stddev=-", Empty().Summary().String())
	assert.Equal(t, "count=1 min=2 max=2 mean=2 stddev=-", Of(2).Summary().String())
}
