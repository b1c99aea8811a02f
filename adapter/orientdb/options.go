package orientdb

import (
	"github.com/sirupsen/logrus"
)

// WithLogger sets the logger used for statements and failures.
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// Option configures a [Manager] through the functional options pattern.
type Option func(*Manager)
