// Package idgenerator contains the default [domain.IDGenerator] implementation
// using random UUIDs.
package idgenerator

import (
	"crypto/rand"
	"io"

	"github.com/google/uuid"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// IDGenerator implements [domain.IDGenerator].
type IDGenerator struct {
	reader io.Reader
}

// NewIDGenerator implements [domain.IDGenerator].
func NewIDGenerator(opts ...Option) domain.IDGenerator {
	i := IDGenerator{reader: rand.Reader}
	for _, opt := range opts {
		opt(&i)
	}
	return &i
}

// GenerateID implements [domain.IDGenerator]. The result is a version 4 UUID
// in its canonical textual form.
func (i *IDGenerator) GenerateID() (string, error) {
	id, err := uuid.NewRandomFromReader(i.reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
