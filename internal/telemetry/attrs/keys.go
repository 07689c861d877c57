// Package attrs provides reusable OpenTelemetry attribute key constants
// to avoid duplication across middlewares and exporters.
package attrs

const (
	// AttrEventName is the name of the event a counter or series belongs to.
	AttrEventName = "event.name"
	// AttrMethod is the Statistics method being observed.
	AttrMethod = "method"
	// AttrOccurrences is the delta passed to AddOccurrences.
	AttrOccurrences = "occurrences"
	// AttrSampleValue is the value passed to AddSample.
	AttrSampleValue = "sample.value"
	// AttrElapsedMS is the elapsed stopwatch time recorded, in milliseconds.
	AttrElapsedMS = "elapsed.ms"
	// AttrCountersCount is the number of counters in a snapshot.
	AttrCountersCount = "counters.count"
	// AttrSamplesCount is the number of sample series in a snapshot.
	AttrSamplesCount = "samples.count"
	// AttrDurationsCount is the number of duration series in a snapshot.
	AttrDurationsCount = "durations.count"
	// AttrInvalid marks a call rejected for invalid input.
	AttrInvalid = "invalid"
)
