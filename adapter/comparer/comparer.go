// Package comparer contains the default [domain.Comparer] implementation.
//
// Values of different kinds are ordered by kind: nil, numbers, strings,
// booleans, times, lists and finally documents. Documents include
// map[string]any, sub-documents ([]domain.Element), UDT values and entities.
package comparer

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-reflect"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

type kind uint8

const (
	kindNil kind = iota
	kindNumber
	kindString
	kindBool
	kindTime
	kindList
	kindDocument
	kindUnknown
)

// Comparer implements [domain.Comparer].
type Comparer struct{}

// NewComparer returns a new implementation of [domain.Comparer].
func NewComparer() domain.Comparer {
	return &Comparer{}
}

// Compare implements [domain.Comparer].
func (c *Comparer) Compare(a, b any) (int, error) {
	a, b = normalize(a), normalize(b)
	ka, kb := kindOf(a), kindOf(b)
	if ka == kindUnknown || kb == kindUnknown {
		return 0, domain.ErrCannotCompare{A: a, B: b}
	}
	if ka != kb {
		return cmp.Compare(ka, kb), nil
	}
	switch ka {
	case kindNil:
		return 0, nil
	case kindNumber:
		fa, _ := asFloat(a)
		fb, _ := asFloat(b)
		return cmp.Compare(fa, fb), nil
	case kindString:
		return strings.Compare(a.(string), b.(string)), nil
	case kindBool:
		return compareBool(a.(bool), b.(bool)), nil
	case kindTime:
		return a.(time.Time).Compare(b.(time.Time)), nil
	case kindList:
		return c.compareLists(a.([]any), b.([]any))
	default:
		return c.compareDocs(a.(map[string]any), b.(map[string]any))
	}
}

// Comparable implements [domain.Comparer]. Only numbers, strings and times
// can be ordered against values of the same kind.
func (c *Comparer) Comparable(a, b any) bool {
	a, b = normalize(a), normalize(b)
	ka := kindOf(a)
	switch ka {
	case kindNumber, kindString, kindTime:
		return ka == kindOf(b)
	default:
		return false
	}
}

func (c *Comparer) compareLists(a, b []any) (int, error) {
	for n := range min(len(a), len(b)) {
		comp, err := c.Compare(a[n], b[n])
		if err != nil || comp != 0 {
			return comp, err
		}
	}
	return cmp.Compare(len(a), len(b)), nil
}

func (c *Comparer) compareDocs(a, b map[string]any) (int, error) {
	ka := sortedKeys(a)
	kb := sortedKeys(b)
	for n := range min(len(ka), len(kb)) {
		if comp := strings.Compare(ka[n], kb[n]); comp != 0 {
			return comp, nil
		}
		comp, err := c.Compare(a[ka[n]], b[kb[n]])
		if err != nil || comp != 0 {
			return comp, err
		}
	}
	return cmp.Compare(len(ka), len(kb)), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

// normalize turns element structures into maps and lists so they can be
// compared with plain values.
func normalize(v any) any {
	switch t := v.(type) {
	case domain.Element, []domain.Element, [][]domain.Element, domain.UDT,
		[]domain.UDT, *domain.Entity:
		return domain.FlattenValue(t)
	case []any:
		return t
	case map[string]any:
		return t
	case *time.Time:
		if t == nil {
			return nil
		}
		return *t
	}
	if v == nil {
		return nil
	}
	if _, ok := asFloat(v); ok {
		return v
	}
	rv := reflect.ValueNoEscapeOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if _, ok := v.([]byte); ok {
			return v
		}
		return domain.AsList(v)
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
	}
	return v
}

func kindOf(v any) kind {
	switch v.(type) {
	case nil:
		return kindNil
	case string:
		return kindString
	case bool:
		return kindBool
	case time.Time:
		return kindTime
	case []any:
		return kindList
	case map[string]any:
		return kindDocument
	}
	if _, ok := asFloat(v); ok {
		return kindNumber
	}
	return kindUnknown
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		if math.IsNaN(t) {
			return math.Inf(-1), true
		}
		return t, true
	}
	return 0, false
}
