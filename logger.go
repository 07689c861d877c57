package tally

import "go.uber.org/zap"

// Logger describes the logging interface used across tally.
// It is satisfied by *zap.SugaredLogger; any logger with the same methods works.
type Logger interface {
	Debugf(template string, args ...any)
	Infof(template string, args ...any)
	Errorf(template string, args ...any)
}

// NopLogger returns a logger that discards everything.
func NopLogger() Logger {
	return zap.NewNop().Sugar()
}
