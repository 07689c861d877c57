// Package constants defines default configuration values for the tally system.
package constants

import "time"

const (
	// DefaultReportInterval is how often the reporter publishes a snapshot.
	DefaultReportInterval = time.Minute
	// DefaultReportWorkers is the number of workers dispatching reports to sinks.
	DefaultReportWorkers = 2
	// DefaultSinkTimeout bounds a single sink publish.
	DefaultSinkTimeout = 10 * time.Second
	// DefaultSerializer is the serializer used for snapshots when none is configured.
	DefaultSerializer = "default"
	// DefaultManagementAddr is the listen address of the management HTTP server.
	DefaultManagementAddr = "127.0.0.1:9480"
	// DefaultReadTimeout is the management HTTP read timeout.
	DefaultReadTimeout = 5 * time.Second
	// DefaultWriteTimeout is the management HTTP write timeout.
	DefaultWriteTimeout = 5 * time.Second
	// DefaultLogLevel is the log level of the CLI.
	DefaultLogLevel = "info"
	// InstrumentationName identifies tally instruments and tracers.
	InstrumentationName = "github.com/hyp3rd/tally"
)
