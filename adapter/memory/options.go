package memory

import (
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// WithLogger sets the logger used to trace operations.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithIDGenerator sets the generator of _id values for entities inserted
// without one.
func WithIDGenerator(g domain.IDGenerator) Option {
	return func(m *Manager) {
		m.idGenerator = g
	}
}

// WithMatcher sets the condition evaluator.
func WithMatcher(mt domain.Matcher) Option {
	return func(m *Manager) {
		m.matcher = mt
	}
}

// WithComparer sets the comparer used to sort results.
func WithComparer(c domain.Comparer) Option {
	return func(m *Manager) {
		m.comparer = c
	}
}

// WithFieldNavigator sets the navigator used to read sort fields.
func WithFieldNavigator(fn domain.FieldNavigator) Option {
	return func(m *Manager) {
		m.fieldNavigator = fn
	}
}

// WithProjector sets the projector applied to select results.
func WithProjector(p domain.Projector) Option {
	return func(m *Manager) {
		m.projector = p
	}
}

// WithTimeGetter sets the clock used to evaluate TTL expiry.
func WithTimeGetter(tg domain.TimeGetter) Option {
	return func(m *Manager) {
		m.timeGetter = tg
	}
}

// Option configures [Manager] behavior through the functional options
// pattern.
type Option func(*Manager)

// WithBucketLogger sets the logger used by [Bucket].
func WithBucketLogger(l logrus.FieldLogger) BucketOption {
	return func(b *Bucket) {
		b.log = l
	}
}

// WithBucketTimeGetter sets the clock used by [Bucket] to evaluate expiry.
func WithBucketTimeGetter(tg domain.TimeGetter) BucketOption {
	return func(b *Bucket) {
		b.timeGetter = tg
	}
}

// BucketOption configures [Bucket] behavior through the functional options
// pattern.
type BucketOption func(*Bucket)
