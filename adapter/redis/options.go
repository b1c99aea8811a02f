package redis

import (
	"github.com/sirupsen/logrus"
)

// WithLogger sets the logger used for commands and failures.
func WithLogger(log logrus.FieldLogger) Option {
	return func(b *Bucket) {
		b.log = log
	}
}

// Option configures a [Bucket] through the functional options pattern.
type Option func(*Bucket)
