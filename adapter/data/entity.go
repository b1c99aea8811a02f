// Package data converts between entities and the values native clients
// produce or accept: maps, structs and raw JSON.
package data

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	goreflect "github.com/goccy/go-reflect"

	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// TagName is the struct tag read by [NewEntity].
const TagName = "gnosql"

var timeTyp = goreflect.TypeOf(*new(time.Time))

// M is a native document.
type M = map[string]any

// ErrEntityType is returned by [NewEntity] when the value cannot be turned into
// an entity.
type ErrEntityType struct {
	Type string
}

// Error implements [error].
func (e ErrEntityType) Error() string {
	return fmt.Sprintf("expected map or struct, got %s", e.Type)
}

// NewEntity builds an entity named name from a struct, a map with string keys,
// or another entity. Struct fields are renamed and skipped through the gnosql
// tag, which also accepts the omitempty and omitzero flags.
func NewEntity(name string, in any) (*domain.Entity, error) {
	switch t := in.(type) {
	case nil:
		return domain.NewEntity(name), nil
	case *domain.Entity:
		c := t.Clone()
		c.SetName(name)
		return c, nil
	case map[string]any:
		return FromMap(name, t), nil
	}

	r := goreflect.ValueNoEscapeOf(in)
	for r.Kind() == goreflect.Interface || r.Kind() == reflect.Pointer {
		if r.IsNil() {
			return domain.NewEntity(name), nil
		}
		r = r.Elem()
	}
	if r.Kind() != goreflect.Struct && r.Kind() != goreflect.Map {
		return nil, ErrEntityType{Type: r.Type().String()}
	}
	v, err := parseReflect(r)
	if err != nil {
		return nil, err
	}
	elements, _ := v.([]domain.Element)
	return domain.NewEntity(name, elements...), nil
}

// FromMap builds an entity from a native document. Map keys are unordered, so
// elements are sorted by name.
func FromMap(name string, doc map[string]any) *domain.Entity {
	return domain.NewEntity(name, Elements(doc)...)
}

// Elements converts a native document into elements sorted by name.
func Elements(doc map[string]any) []domain.Element {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	elements := make([]domain.Element, len(keys))
	for n, k := range keys {
		elements[n] = domain.NewElement(k, ElementValue(doc[k]))
	}
	return elements
}

// ElementValue converts a native value into its element form: documents
// become []domain.Element, lists of documents become [][]domain.Element and
// other lists become []any. Scalars are returned as they are.
func ElementValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Elements(t)
	case []map[string]any:
		docs := make([][]domain.Element, len(t))
		for n, doc := range t {
			docs[n] = Elements(doc)
		}
		return docs
	case []any:
		items := make([]any, len(t))
		for n, item := range t {
			items[n] = ElementValue(item)
		}
		return subDocuments(items)
	default:
		return v
	}
}

// ToMap returns the native document of an entity. Sub-documents become maps
// and lists of sub-documents become []any of maps.
func ToMap(e *domain.Entity) M {
	if e == nil {
		return nil
	}
	return e.Map()
}

func parseReflect(r goreflect.Value) (any, error) {
	for r.Kind() == reflect.Pointer || r.Kind() == goreflect.Interface {
		if r.IsNil() {
			return nil, nil
		}
		r = r.Elem()
	}
	if !r.IsValid() {
		return nil, nil
	}
	if r.CanInterface() {
		switch t := r.Interface().(type) {
		case domain.Element, []domain.Element, [][]domain.Element,
			domain.UDT, []domain.UDT, []byte, time.Time:
			return t, nil
		case *domain.Entity:
			return t.Elements(), nil
		case map[string]any:
			return Elements(t), nil
		}
	}
	switch r.Kind() {
	case goreflect.Slice:
		if r.IsNil() {
			return nil, nil
		}
		return parseList(r)
	case goreflect.Array:
		return parseList(r)
	case goreflect.Struct:
		if r.Type() == timeTyp {
			return r.Interface(), nil
		}
		return parseStruct(r)
	case goreflect.Map:
		if r.IsNil() {
			return nil, nil
		}
		return parseMap(r)
	case goreflect.Chan, goreflect.Func:
		if r.IsNil() {
			return nil, nil
		}
		return r.Interface(), nil
	default:
		return r.Interface(), nil
	}
}

func parseStruct(r goreflect.Value) ([]domain.Element, error) {
	typ := r.Type()
	res := make([]domain.Element, 0, r.NumField())
	for n := range r.NumField() {
		field := typ.Field(n)
		if field.PkgPath != "" {
			continue
		}
		el, ok, err := parseField(r.Field(n), field)
		if err != nil {
			return nil, err
		}
		if ok {
			res = append(res, el)
		}
	}
	return res, nil
}

func parseMap(r goreflect.Value) ([]domain.Element, error) {
	keys := r.MapKeys()
	res := make([]domain.Element, 0, len(keys))
	for _, k := range keys {
		v, err := parseReflect(r.MapIndex(k))
		if err != nil {
			return nil, err
		}
		res = append(res, domain.NewElement(fmt.Sprint(k.Interface()), v))
	}
	slices.SortFunc(res, func(a, b domain.Element) int {
		return strings.Compare(a.Name, b.Name)
	})
	return res, nil
}

func parseList(r goreflect.Value) (any, error) {
	items := make([]any, r.Len())
	for i := range items {
		v, err := parseReflect(r.Index(i))
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	return subDocuments(items), nil
}

func parseField(r goreflect.Value, typ goreflect.StructField) (domain.Element, bool, error) {
	name := typ.Name
	var flags []string
	if tag, ok := typ.Tag.Lookup(TagName); ok {
		if tag == "-" {
			return domain.Element{}, false, nil
		}
		flags = strings.Split(tag, ",")
		if flags[0] != "" {
			name = flags[0]
		}
		flags = flags[1:]
	}
	if slices.Contains(flags, "omitempty") && isNullable(typ.Type) && r.IsNil() {
		return domain.Element{}, false, nil
	}
	if slices.Contains(flags, "omitzero") && r.IsZero() {
		return domain.Element{}, false, nil
	}
	value, err := parseReflect(r)
	if err != nil {
		return domain.Element{}, false, err
	}
	return domain.NewElement(name, value), true, nil
}

func isNullable(t goreflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface,
		reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}
