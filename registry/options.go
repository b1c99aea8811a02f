package registry

import (
	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
)

// WithLogger sets the logger handed to adapters.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithScope wraps opened managers with [instrumented] metrics reported to
// scope.
//
// [instrumented]: github.com/vinicius-lino-figueiredo/gnosql/adapter/instrumented
func WithScope(scope tally.Scope) Option {
	return func(o *options) {
		o.scope = scope
	}
}

// Option configures [Open] and [OpenBucket] through the functional options
// pattern.
type Option func(*options)

type options struct {
	log   logrus.FieldLogger
	scope tally.Scope
}

func newOptions(opts []Option) options {
	o := options{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
