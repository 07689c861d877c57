package distribution

import (
	"fmt"
	"math"
	"strings"
)

// Summary is the export form of a Distribution.
// Statistics that are not finite (NaN variance, infinite extremes of an empty series) are nil,
// since most wire formats cannot carry them.
type Summary struct {
	Count    int64    `json:"count"              msgpack:"count"`
	Min      *float64 `json:"min,omitempty"      msgpack:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"      msgpack:"max,omitempty"`
	Mean     *float64 `json:"mean,omitempty"     msgpack:"mean,omitempty"`
	Sum      *float64 `json:"sum,omitempty"      msgpack:"sum,omitempty"`
	Variance *float64 `json:"variance,omitempty" msgpack:"variance,omitempty"`
	StdDev   *float64 `json:"stddev,omitempty"   msgpack:"stddev,omitempty"`
}

// Summary returns the export form of d.
func (d Distribution) Summary() Summary {
	s := Summary{Count: d.count}
	if d.IsEmpty() {
		return s
	}

	s.Min = finite(d.Min())
	s.Max = finite(d.Max())
	s.Mean = finite(d.Mean())
	s.Sum = finite(d.Sum())
	s.Variance = finite(d.Variance())
	s.StdDev = finite(d.StdDev())

	return s
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	return &v
}

// String renders the summary with absent statistics shown as "-".
func (s Summary) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "count=%d", s.Count)

	for _, f := range []struct {
		name  string
		value *float64
	}{
		{"min", s.Min}, {"max", s.Max}, {"mean", s.Mean}, {"stddev", s.StdDev},
	} {
		if f.value == nil {
			fmt.Fprintf(&b, " %s=-", f.name)

			continue
		}

		fmt.Fprintf(&b, " %s=%g", f.name, *f.value)
	}

	return b.String()
}
