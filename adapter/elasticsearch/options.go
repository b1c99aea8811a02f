package elasticsearch

import (
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// WithLogger sets the logger used for requests and failures.
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithIDGenerator sets the generator used for entities inserted without an
// _id element.
func WithIDGenerator(g domain.IDGenerator) Option {
	return func(m *Manager) {
		m.idGenerator = g
	}
}

// Option configures a [Manager] through the functional options pattern.
type Option func(*Manager)
