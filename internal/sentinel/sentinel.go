// Package sentinel provides standardized error definitions for the tally system.
// All errors are created with the ewrap package so call sites can attach context
// with ewrap.Wrap while callers keep matching them with errors.Is.
package sentinel

import (
	"github.com/hyp3rd/ewrap"
)

var (
	// ErrInvalidEventName is returned when an event name is empty or consists only of whitespace.
	ErrInvalidEventName = ewrap.New("invalid event name")

	// ErrNegativeOccurrences is returned when an occurrence delta is negative.
	ErrNegativeOccurrences = ewrap.New("occurrences cannot be negative")

	// ErrInvalidSample is returned when a sample value is NaN or infinite.
	ErrInvalidSample = ewrap.New("invalid sample value")

	// ErrCounterOverflow is returned when an occurrence delta would overflow a counter.
	ErrCounterOverflow = ewrap.New("counter overflow")

	// ErrParamCannotBeEmpty is returned when a parameter cannot be empty.
	ErrParamCannotBeEmpty = ewrap.New("param cannot be empty")

	// ErrSerializerNotFound is returned when a serializer is not found.
	ErrSerializerNotFound = ewrap.New("serializer not found")

	// ErrNilStatistics is returned when a component is built without a statistics source.
	ErrNilStatistics = ewrap.New("nil statistics")

	// ErrNilClient is returned when a nil client is passed to a sink.
	ErrNilClient = ewrap.New("nil client")

	// ErrNilMeter is returned when a nil meter is passed to the OpenTelemetry exporter.
	ErrNilMeter = ewrap.New("nil meter")

	// ErrInvalidInterval is returned when a reporting interval is not positive.
	ErrInvalidInterval = ewrap.New("interval must be positive")

	// ErrReporterRunning is returned when a reporter is started twice.
	ErrReporterRunning = ewrap.New("reporter already running")

	// ErrPoolClosed is returned when a job is enqueued on a worker pool that was shut down.
	ErrPoolClosed = ewrap.New("worker pool closed")

	// ErrMgmtHTTPShutdownTimeout is returned when the management HTTP server fails to shutdown before context deadline.
	ErrMgmtHTTPShutdownTimeout = ewrap.New("management http shutdown timeout")
)
