// Package deserializer reads the lines written by the serializer package back
// into elements.
package deserializer

import (
	"context"
	"time"

	"github.com/vinicius-lino-figueiredo/gnosql/adapter/data"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/serializer"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// Deserializer reads JSON objects into ordered elements.
type Deserializer struct{}

// NewDeserializer returns a new Deserializer.
func NewDeserializer() *Deserializer {
	return &Deserializer{}
}

// Deserialize parses b, which must hold a JSON object. Objects made only of a
// numeric [serializer.DateKey] member are turned back into [time.Time].
func (d *Deserializer) Deserialize(ctx context.Context, b []byte) ([]domain.Element, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	elements, err := data.ParseElements(b)
	if err != nil {
		return nil, err
	}
	return restoreElements(elements), nil
}

func restoreElements(elements []domain.Element) []domain.Element {
	for n, el := range elements {
		elements[n].Value = restore(el.Value)
	}
	return elements
}

func restore(v any) any {
	switch t := v.(type) {
	case []domain.Element:
		if date, ok := asDate(t); ok {
			return date
		}
		return restoreElements(t)
	case [][]domain.Element:
		dates := make([]any, len(t))
		for n, doc := range t {
			date, ok := asDate(doc)
			if !ok {
				for m := range t {
					t[m] = restoreElements(t[m])
				}
				return t
			}
			dates[n] = date
		}
		return dates
	case []any:
		for n, item := range t {
			t[n] = restore(item)
		}
		return t
	default:
		return v
	}
}

func asDate(doc []domain.Element) (time.Time, bool) {
	if len(doc) != 1 || doc[0].Name != serializer.DateKey {
		return time.Time{}, false
	}
	millis, ok := doc[0].Value.(int64)
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}
