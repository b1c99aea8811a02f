// Package decoder contains the default [domain.Decoder] implementation.
package decoder

import (
	"fmt"
	"time"

	"github.com/goccy/go-reflect"
	"github.com/mitchellh/mapstructure"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/data"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// Decoder implements domain.Decoder. Struct fields are matched through the
// gnosql tag, the same one used to build entities from structs.
type Decoder struct{}

// NewDecoder returns a new implementation of domain.Decoder.
func NewDecoder() domain.Decoder {
	return &Decoder{}
}

// Decode implements domain.Decoder. Entities and element values are
// flattened into maps first, and RFC 3339 strings are accepted for
// [time.Time] fields since JSON backends return dates as text.
func (d *Decoder) Decode(source any, target any) error {
	if target == nil {
		return domain.ErrTargetNil
	}

	value := reflect.ValueNoEscapeOf(target)
	if value.Kind() != reflect.Ptr {
		return domain.ErrNonPointer
	}

	source = domain.FlattenValue(source)

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: data.TagName,
		Result:  target,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(source); err != nil {
		errDec := domain.ErrDecode{Source: source, Target: target}
		return fmt.Errorf("%w: %w", errDec, err)
	}
	return nil
}
