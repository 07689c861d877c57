package tally

import "github.com/benbjohnson/clock"

// Option is a function type that can be used to configure a Store.
type Option func(*Store)

// ApplyOptions applies the given options to the given store.
func ApplyOptions(store *Store, options ...Option) {
	for _, option := range options {
		option(store)
	}
}

// WithClock sets the clock used for stopwatches and snapshot timestamps.
// A nil clock is ignored.
func WithClock(clk clock.Clock) Option {
	return func(store *Store) {
		if clk != nil {
			store.clock = clk
		}
	}
}
