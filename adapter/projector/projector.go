// Package projector contains the default [domain.Projector] implementation.
package projector

import (
	"slices"
	"strings"

	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// Projector implements [domain.Projector].
type Projector struct {
	keep []string
}

// NewProjector returns a new implementation of [domain.Projector].
func NewProjector(opts ...Option) domain.Projector {
	var p Projector
	for _, opt := range opts {
		opt(&p)
	}
	return &p
}

// Project implements [domain.Projector]. Elements registered through
// [WithKeep] are always kept, so projected entities can still be updated.
func (p *Projector) Project(entity *domain.Entity, fields []string) *domain.Entity {
	if entity == nil || len(fields) == 0 {
		return entity
	}
	paths := make([][]string, 0, len(fields)+len(p.keep))
	for _, f := range slices.Concat(p.keep, fields) {
		paths = append(paths, strings.Split(f, "."))
	}
	return domain.NewEntity(entity.Name(), project(entity.Elements(), paths)...)
}

// project keeps the elements addressed by paths, in their original order.
func project(elements []domain.Element, paths [][]string) []domain.Element {
	var res []domain.Element
	for _, el := range elements {
		var sub [][]string
		whole := false
		for _, path := range paths {
			if path[0] != el.Name {
				continue
			}
			if len(path) == 1 {
				whole = true
				break
			}
			sub = append(sub, path[1:])
		}
		switch {
		case whole:
			res = append(res, el)
		case len(sub) > 0:
			if v, ok := projectValue(el.Value, sub); ok {
				res = append(res, domain.NewElement(el.Name, v))
			}
		}
	}
	return res
}

func projectValue(v any, paths [][]string) (any, bool) {
	switch t := v.(type) {
	case []domain.Element:
		sub := project(t, paths)
		return sub, len(sub) > 0
	case domain.Element:
		sub := project([]domain.Element{t}, paths)
		if len(sub) == 0 {
			return nil, false
		}
		return sub[0], true
	case domain.UDT:
		sub := project(t.Elements, paths)
		return domain.NewUDT(t.Name, sub...), len(sub) > 0
	case [][]domain.Element:
		docs := make([][]domain.Element, 0, len(t))
		for _, doc := range t {
			if sub := project(doc, paths); len(sub) > 0 {
				docs = append(docs, sub)
			}
		}
		return docs, len(docs) > 0
	default:
		return nil, false
	}
}
