package matcher

import "github.com/vinicius-lino-figueiredo/gnosql/domain"

// WithComparer sets the comparer implementation for value comparisons during
// matching.
func WithComparer(c domain.Comparer) Option {
	return func(m *Matcher) {
		m.comparer = c
	}
}

// WithFieldNavigator sets the navigator used to resolve condition field paths.
func WithFieldNavigator(f domain.FieldNavigator) Option {
	return func(m *Matcher) {
		m.fieldNavigator = f
	}
}

// Option configures matcher behavior through the functional options pattern.
type Option func(*Matcher)
