// Package fieldnavigator contains the default [domain.FieldNavigator]
// implementation.
package fieldnavigator

import (
	"strconv"
	"strings"

	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// FieldNavigator implements [domain.FieldNavigator]. Paths are split on dots.
// A numeric segment indexes a list; any other segment applied to a list is
// resolved against every item, so one path can yield several values.
type FieldNavigator struct{}

// NewFieldNavigator returns a new implementation of [domain.FieldNavigator].
func NewFieldNavigator() domain.FieldNavigator {
	return &FieldNavigator{}
}

// GetField implements [domain.FieldNavigator].
func (fn *FieldNavigator) GetField(obj any, path string) ([]any, bool) {
	if path == "" {
		return nil, false
	}
	return fn.get(obj, strings.Split(path, "."))
}

func (fn *FieldNavigator) get(obj any, addr []string) ([]any, bool) {
	if len(addr) == 0 {
		return []any{obj}, true
	}
	key, rest := addr[0], addr[1:]

	switch t := obj.(type) {
	case *domain.Entity:
		if t == nil {
			return nil, false
		}
		return fn.find(t.Elements(), key, rest)
	case []domain.Element:
		return fn.find(t, key, rest)
	case domain.Element:
		return fn.find([]domain.Element{t}, key, rest)
	case domain.UDT:
		return fn.find(t.Elements, key, rest)
	case map[string]any:
		v, ok := t[key]
		if !ok {
			return nil, false
		}
		return fn.get(v, rest)
	case [][]domain.Element:
		items := make([]any, len(t))
		for n, sub := range t {
			items[n] = sub
		}
		return fn.list(items, key, rest)
	case []domain.UDT:
		items := make([]any, len(t))
		for n, u := range t {
			items[n] = u
		}
		return fn.list(items, key, rest)
	}
	if domain.IsList(obj) {
		return fn.list(domain.AsList(obj), key, rest)
	}
	return nil, false
}

func (fn *FieldNavigator) find(elements []domain.Element, key string, rest []string) ([]any, bool) {
	for _, el := range elements {
		if el.Name == key {
			return fn.get(el.Value, rest)
		}
	}
	return nil, false
}

func (fn *FieldNavigator) list(items []any, key string, rest []string) ([]any, bool) {
	if idx, err := strconv.Atoi(key); err == nil {
		if idx < 0 || idx >= len(items) {
			return nil, false
		}
		return fn.get(items[idx], rest)
	}
	var res []any
	found := false
	for _, item := range items {
		values, ok := fn.get(item, append([]string{key}, rest...))
		if ok {
			found = true
			res = append(res, values...)
		}
	}
	return res, found
}
