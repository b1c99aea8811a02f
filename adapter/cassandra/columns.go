package cassandra

import (
	"slices"

	"github.com/gocql/gocql"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// toCQL converts an element value into a value gocql can marshal.
// Sub-documents and UDTs become maps keyed by field name.
func toCQL(v any) any {
	switch t := v.(type) {
	case domain.Element:
		return map[string]any{t.Name: toCQL(t.Value)}
	case []domain.Element:
		return elementsMap(t)
	case domain.UDT:
		return elementsMap(t.Elements)
	case []domain.UDT:
		l := make([]map[string]any, len(t))
		for n, u := range t {
			l[n] = elementsMap(u.Elements)
		}
		return l
	case [][]domain.Element:
		l := make([]map[string]any, len(t))
		for n, sub := range t {
			l[n] = elementsMap(sub)
		}
		return l
	case []any:
		l := make([]any, len(t))
		for n, item := range t {
			l[n] = toCQL(item)
		}
		return l
	default:
		return v
	}
}

func elementsMap(elements []domain.Element) map[string]any {
	m := make(map[string]any, len(elements))
	for _, el := range elements {
		m[el.Name] = toCQL(el.Value)
	}
	return m
}

// rowEntity rebuilds an entity from a scanned row, using the column metadata
// to restore user-defined types in declaration order.
func rowEntity(name string, columns []gocql.ColumnInfo, row map[string]any) *domain.Entity {
	e := domain.NewEntity(name)
	for _, col := range columns {
		v, ok := row[col.Name]
		if !ok {
			continue
		}
		e.Add(col.Name, fromCQL(col.TypeInfo, v))
	}
	return e
}

func fromCQL(info gocql.TypeInfo, v any) any {
	if udt, ok := udtInfo(info); ok {
		m, ok := v.(map[string]any)
		if !ok {
			return v
		}
		return udtValue(udt, m)
	}
	if coll, ok := collectionInfo(info); ok {
		if udt, ok := udtInfo(coll.Elem); ok {
			maps, ok := v.([]map[string]any)
			if !ok {
				return v
			}
			l := make([]domain.UDT, len(maps))
			for n, m := range maps {
				l[n] = udtValue(udt, m)
			}
			return l
		}
	}
	if m, ok := v.(map[string]any); ok {
		return mapElements(m)
	}
	return v
}

func udtValue(info gocql.UDTTypeInfo, m map[string]any) domain.UDT {
	u := domain.UDT{Name: info.Name}
	for _, f := range info.Elements {
		u.Elements = append(u.Elements, domain.NewElement(f.Name, fromCQL(f.Type, m[f.Name])))
	}
	return u
}

// mapElements converts a plain map into elements sorted by key.
func mapElements(m map[string]any) []domain.Element {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	elements := make([]domain.Element, len(keys))
	for n, k := range keys {
		elements[n] = domain.NewElement(k, m[k])
	}
	return elements
}

func udtInfo(info gocql.TypeInfo) (gocql.UDTTypeInfo, bool) {
	switch t := info.(type) {
	case gocql.UDTTypeInfo:
		return t, true
	case *gocql.UDTTypeInfo:
		if t != nil {
			return *t, true
		}
	}
	return gocql.UDTTypeInfo{}, false
}

func collectionInfo(info gocql.TypeInfo) (gocql.CollectionType, bool) {
	switch t := info.(type) {
	case gocql.CollectionType:
		return t, true
	case *gocql.CollectionType:
		if t != nil {
			return *t, true
		}
	}
	return gocql.CollectionType{}, false
}
