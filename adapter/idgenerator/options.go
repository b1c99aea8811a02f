package idgenerator

import "io"

// WithReader sets the source of randomness used to build UUIDs. Mostly useful
// in tests.
func WithReader(r io.Reader) Option {
	return func(i *IDGenerator) {
		i.reader = r
	}
}

// Option configures an [IDGenerator] through the functional options pattern.
type Option func(*IDGenerator)
