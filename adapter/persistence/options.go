package persistence

import (
	"os"

	"github.com/sirupsen/logrus"
)

// WithCorruptAlertThreshold sets the share of unreadable lines tolerated
// when loading.
func WithCorruptAlertThreshold(c float64) Option {
	return func(p *Persistence) {
		p.corruptAlertThreshold = c
	}
}

// WithFileMode sets the permissions of the datafile.
func WithFileMode(f os.FileMode) Option {
	return func(p *Persistence) {
		p.fileMode = f
	}
}

// WithDirMode sets the permissions of created directories.
func WithDirMode(d os.FileMode) Option {
	return func(p *Persistence) {
		p.dirMode = d
	}
}

// WithLogger sets the logger used by [Persistence].
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Persistence) {
		p.log = l
	}
}

// Option configures persistence behavior through the functional
// options pattern.
type Option func(*Persistence)
