package oraclenosql

import (
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// WithLogger sets the logger used for statements and failures.
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithIDGenerator sets the generator used for entities inserted without the
// primary key.
func WithIDGenerator(g domain.IDGenerator) Option {
	return func(m *Manager) {
		m.idGenerator = g
	}
}

// Option configures a [Manager] through the functional options pattern.
type Option func(*Manager)

// WithBucketLogger sets the logger of a [Bucket].
func WithBucketLogger(log logrus.FieldLogger) BucketOption {
	return func(b *Bucket) {
		b.log = log
	}
}

// BucketOption configures a [Bucket] through the functional options pattern.
type BucketOption func(*Bucket)
