// Package serializer writes element values as JSON, keeping the order of
// elements and sub-documents.
package serializer

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/vinicius-lino-figueiredo/gnosql/adapter/data"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// DateKey wraps dates, which are written as {"$$date": <unix millis>} so they
// can be told apart from strings when read back.
const DateKey = "$$date"

// Serializer encodes entities and element values.
type Serializer struct{}

// NewSerializer returns a new Serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Serialize returns the JSON form of v. Entities, element lists and UDTs
// become objects in element order, maps become objects sorted by key and
// dates are wrapped in [DateKey].
func (s *Serializer) Serialize(ctx context.Context, v any) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	buf := new(bytes.Buffer)
	if err := s.write(buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Serializer) write(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case *domain.Entity:
		return s.writeElements(buf, t.Elements())
	case []domain.Element:
		return s.writeElements(buf, t)
	case domain.Element:
		return s.writeElements(buf, []domain.Element{t})
	case domain.UDT:
		return s.writeElements(buf, t.Elements)
	case map[string]any:
		return s.writeElements(buf, data.Elements(t))
	case time.Time:
		buf.WriteString(`{"` + DateKey + `":`)
		buf.WriteString(strconv.FormatInt(t.UnixMilli(), 10))
		buf.WriteByte('}')
		return nil
	case []byte:
		return s.writeJSON(buf, t)
	}

	if domain.IsList(v) {
		buf.WriteByte('[')
		for n, item := range domain.AsList(v) {
			if n > 0 {
				buf.WriteByte(',')
			}
			if err := s.write(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}
	return s.writeJSON(buf, v)
}

func (s *Serializer) writeElements(buf *bytes.Buffer, elements []domain.Element) error {
	buf.WriteByte('{')
	for n, el := range elements {
		if n > 0 {
			buf.WriteByte(',')
		}
		if err := s.writeJSON(buf, el.Name); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := s.write(buf, el.Value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func (s *Serializer) writeJSON(buf *bytes.Buffer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
