package domain

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Element is a named value inside an [Entity]. The value can be a scalar, a
// nested Element, a sub-document ([]Element), a list of sub-documents
// ([][]Element), a plain list ([]any) or a [UDT].
type Element struct {
	Name  string
	Value any
}

// NewElement returns an Element with the given name and value.
func NewElement(name string, value any) Element {
	return Element{Name: name, Value: value}
}

// Get returns the element value.
func (e Element) Get() any { return e.Value }

// String implements [fmt.Stringer].
func (e Element) String() string {
	return fmt.Sprintf("%s=%v", e.Name, e.Value)
}

// UDT is a Cassandra user-defined type value. Name is the type name as
// declared in the keyspace.
type UDT struct {
	Name     string
	Elements []Element
}

// NewUDT returns a UDT value for the given type name and fields.
func NewUDT(name string, elements ...Element) UDT {
	return UDT{Name: name, Elements: elements}
}

// Entity is the vendor-neutral record. Name identifies the collection, table
// or column family, and elements keep insertion order. Element names are
// unique: adding an existing name replaces its value in place.
type Entity struct {
	name     string
	elements []Element
}

// NewEntity returns an entity with the given name and elements.
func NewEntity(name string, elements ...Element) *Entity {
	e := &Entity{name: name, elements: make([]Element, 0, len(elements))}
	for _, el := range elements {
		e.AddElement(el)
	}
	return e
}

// Name returns the entity name.
func (e *Entity) Name() string { return e.name }

// SetName changes the entity name.
func (e *Entity) SetName(name string) { e.name = name }

// Add sets the value for name.
func (e *Entity) Add(name string, value any) *Entity {
	return e.AddElement(Element{Name: name, Value: value})
}

// AddElement sets el, replacing any element with the same name.
func (e *Entity) AddElement(el Element) *Entity {
	if i := e.index(el.Name); i >= 0 {
		e.elements[i] = el
		return e
	}
	e.elements = append(e.elements, el)
	return e
}

// Find returns the element with the given name.
func (e *Entity) Find(name string) (Element, bool) {
	if i := e.index(name); i >= 0 {
		return e.elements[i], true
	}
	return Element{}, false
}

// Value returns the value under name, or nil if unset.
func (e *Entity) Value(name string) any {
	el, _ := e.Find(name)
	return el.Value
}

// Remove deletes the element with the given name and reports whether it was
// present.
func (e *Entity) Remove(name string) bool {
	i := e.index(name)
	if i < 0 {
		return false
	}
	e.elements = slices.Delete(e.elements, i, i+1)
	return true
}

// Elements returns a copy of the entity elements in insertion order.
func (e *Entity) Elements() []Element {
	return slices.Clone(e.elements)
}

// Names returns element names in insertion order.
func (e *Entity) Names() []string {
	names := make([]string, len(e.elements))
	for n, el := range e.elements {
		names[n] = el.Name
	}
	return names
}

// Len returns the number of elements.
func (e *Entity) Len() int { return len(e.elements) }

// Clone returns a deep copy of the entity. Sub-documents, lists and UDTs are
// copied too, so the clone shares no backing array with e.
func (e *Entity) Clone() *Entity {
	return &Entity{name: e.name, elements: CloneElements(e.elements)}
}

// CloneElements returns a deep copy of elements.
func CloneElements(elements []Element) []Element {
	if elements == nil {
		return nil
	}
	c := make([]Element, len(elements))
	for n, el := range elements {
		c[n] = Element{Name: el.Name, Value: CloneValue(el.Value)}
	}
	return c
}

// CloneValue returns a deep copy of an element value. Scalars are returned
// as they are.
func CloneValue(v any) any {
	switch t := v.(type) {
	case Element:
		return Element{Name: t.Name, Value: CloneValue(t.Value)}
	case []Element:
		return CloneElements(t)
	case [][]Element:
		if t == nil {
			return t
		}
		l := make([][]Element, len(t))
		for n, sub := range t {
			l[n] = CloneElements(sub)
		}
		return l
	case UDT:
		return UDT{Name: t.Name, Elements: CloneElements(t.Elements)}
	case []UDT:
		if t == nil {
			return t
		}
		l := make([]UDT, len(t))
		for n, u := range t {
			l[n] = UDT{Name: u.Name, Elements: CloneElements(u.Elements)}
		}
		return l
	case []any:
		if t == nil {
			return t
		}
		l := make([]any, len(t))
		for n, item := range t {
			l[n] = CloneValue(item)
		}
		return l
	case map[string]any:
		if t == nil {
			return t
		}
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[k] = CloneValue(item)
		}
		return m
	case []byte:
		return slices.Clone(t)
	case *Entity:
		if t == nil {
			return t
		}
		return t.Clone()
	default:
		return v
	}
}

// Map returns the entity as a nested map. Sub-documents become
// map[string]any and lists of sub-documents become []any of maps.
func (e *Entity) Map() map[string]any {
	return ElementsMap(e.elements)
}

// String implements [fmt.Stringer].
func (e *Entity) String() string {
	return fmt.Sprintf("%s%v", e.name, e.elements)
}

func (e *Entity) index(name string) int {
	return slices.IndexFunc(e.elements, func(el Element) bool {
		return el.Name == name
	})
}

// ElementsMap flattens elements into a map, recursing into sub-documents,
// lists and UDTs.
func ElementsMap(elements []Element) map[string]any {
	m := make(map[string]any, len(elements))
	for _, el := range elements {
		m[el.Name] = FlattenValue(el.Value)
	}
	return m
}

// FlattenValue converts an element value into plain maps and slices.
func FlattenValue(v any) any {
	switch t := v.(type) {
	case Element:
		return map[string]any{t.Name: FlattenValue(t.Value)}
	case []Element:
		return ElementsMap(t)
	case [][]Element:
		l := make([]any, len(t))
		for n, sub := range t {
			l[n] = ElementsMap(sub)
		}
		return l
	case UDT:
		return ElementsMap(t.Elements)
	case []UDT:
		l := make([]any, len(t))
		for n, u := range t {
			l[n] = ElementsMap(u.Elements)
		}
		return l
	case []any:
		l := make([]any, len(t))
		for n, item := range t {
			l[n] = FlattenValue(item)
		}
		return l
	case *Entity:
		return t.Map()
	default:
		return v
	}
}

// KeyValue is a single key-value pair handled by a [BucketManager].
type KeyValue struct {
	Key   string
	Value any
}

// NewKeyValue returns a KeyValue.
func NewKeyValue(key string, value any) KeyValue {
	return KeyValue{Key: key, Value: value}
}

// Value is a raw value stored in a key-value engine. Values written through a
// [BucketManager] are JSON encoded, except for strings and byte slices which
// are stored as they are.
type Value []byte

// Decode decodes the value into target. Strings and byte slices receive the
// raw bytes; everything else is JSON decoded.
func (v Value) Decode(target any) error {
	switch t := target.(type) {
	case nil:
		return ErrTargetNil
	case *string:
		*t = string(v)
		return nil
	case *[]byte:
		*t = slices.Clone([]byte(v))
		return nil
	}
	if err := json.Unmarshal(v, target); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode{Source: v, Target: target}, err)
	}
	return nil
}

// String implements [fmt.Stringer].
func (v Value) String() string { return string(v) }

// EncodeValue converts a value into its stored form for key-value engines.
func EncodeValue(v any) (Value, error) {
	switch t := v.(type) {
	case string:
		return Value(t), nil
	case []byte:
		return Value(slices.Clone(t)), nil
	case Value:
		return slices.Clone(t), nil
	case *Entity:
		return json.Marshal(t.Map())
	default:
		return json.Marshal(FlattenValue(v))
	}
}

// ValidateEntity checks an entity received by a manager before it is stored.
func ValidateEntity(e *Entity) error {
	switch {
	case e == nil:
		return ErrNilEntity
	case e.name == "":
		return ErrNoEntityName
	case len(e.elements) == 0:
		return ErrEmptyEntity
	}
	return nil
}
