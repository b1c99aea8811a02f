// Package gnosql provides a single API over several NoSQL engines.
//
// Data is modelled as an [Entity]: a named, ordered list of [Element] pairs.
// Entities are filtered with a [Condition] tree and stored through a
// [Manager], which translates queries into the native language of the engine
// behind it. Engines that only store values under keys are reached through a
// [BucketManager].
//
// Drivers live in the adapter packages and can be built directly or opened
// from a configuration file through the registry package:
//
//	m := memory.NewManager(memory.Config{})
//	e, _ := gnosql.NewEntity("person", map[string]any{"name": "Ada"})
//	e, _ = m.Insert(ctx, e)
//	one, err := gnosql.SingleResult(ctx, m, gnosql.NewSelectQuery("person",
//		gnosql.WithCondition(gnosql.Eq("name", "Ada")),
//	))
//
// Every driver reports the same errors, listed below, so callers can check
// them with [errors.Is] regardless of the engine in use. Vendor failures are
// wrapped in [ErrDriver].
package gnosql

import (
	"context"

	"github.com/vinicius-lino-figueiredo/gnosql/adapter/data"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/decoder"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

var (
	// ErrNotFound is returned when a key or a single result is requested and
	// nothing matches.
	ErrNotFound = domain.ErrNotFound
	// ErrNonUniqueResult is returned by [SingleResult] when more than one
	// entity matches.
	ErrNonUniqueResult = domain.ErrNonUniqueResult
	// ErrClosed is returned by managers after Close was called.
	ErrClosed = domain.ErrClosed
	// ErrUnsupportedOperation is returned when the engine cannot perform the
	// requested operation.
	ErrUnsupportedOperation = domain.ErrUnsupportedOperation
	// ErrMissingID is returned when updating an entity without an id.
	ErrMissingID = domain.ErrMissingID
	// ErrDuplicateID is returned when inserting an id that is already
	// stored.
	ErrDuplicateID = domain.ErrDuplicateID
	// ErrEmptyEntity is returned when inserting an entity without elements.
	ErrEmptyEntity = domain.ErrEmptyEntity
	// ErrNoEntityName is returned when an entity or query has no name.
	ErrNoEntityName = domain.ErrNoEntityName
	// ErrNilEntity is returned when a nil entity is passed to a manager.
	ErrNilEntity = domain.ErrNilEntity
	// ErrNegativePagination is returned for negative skip or limit.
	ErrNegativePagination = domain.ErrNegativePagination
	// ErrTargetNil is returned by [Decode] when target is nil.
	ErrTargetNil = domain.ErrTargetNil
	// ErrNonPointer is returned by [Decode] when target is not a pointer.
	ErrNonPointer = domain.ErrNonPointer
)

type (
	// Entity is a named, ordered list of elements.
	Entity = domain.Entity
	// Element is a name and value pair.
	Element = domain.Element
	// Value is a raw value stored in a bucket.
	Value = domain.Value
	// KeyValue is a key and value pair stored in a bucket.
	KeyValue = domain.KeyValue
	// Condition is a node of a filter tree.
	Condition = domain.Condition
	// Operator identifies the kind of a [Condition].
	Operator = domain.Operator
	// Sort is an ordering rule of a [SelectQuery].
	Sort = domain.Sort
	// SelectQuery describes which entities to read.
	SelectQuery = domain.SelectQuery
	// DeleteQuery describes which entities, or which of their fields, to
	// remove.
	DeleteQuery = domain.DeleteQuery
	// Manager stores entities. See [domain.Manager].
	Manager = domain.Manager
	// BucketManager stores values under keys. See [domain.BucketManager].
	BucketManager = domain.BucketManager

	// ErrDriver wraps a failure returned by a vendor client.
	ErrDriver = domain.ErrDriver
	// ErrDecode is returned when a value cannot be decoded into a target.
	ErrDecode = domain.ErrDecode
	// ErrInvalidCondition is returned for malformed condition trees.
	ErrInvalidCondition = domain.ErrInvalidCondition
	// ErrUnsupportedCondition is returned when a driver cannot express an
	// operator.
	ErrUnsupportedCondition = domain.ErrUnsupportedCondition
)

// Condition builders and query options.
var (
	Eq      = domain.Eq
	Gt      = domain.Gt
	Gte     = domain.Gte
	Lt      = domain.Lt
	Lte     = domain.Lte
	Like    = domain.Like
	In      = domain.In
	Between = domain.Between
	And     = domain.And
	Or      = domain.Or
	Not     = domain.Not

	SortAsc  = domain.SortAsc
	SortDesc = domain.SortDesc

	NewSelectQuery      = domain.NewSelectQuery
	WithFields          = domain.WithFields
	WithCondition       = domain.WithCondition
	WithSort            = domain.WithSort
	WithSkip            = domain.WithSkip
	WithLimit           = domain.WithLimit
	NewDeleteQuery      = domain.NewDeleteQuery
	WithDeleteFields    = domain.WithDeleteFields
	WithDeleteCondition = domain.WithDeleteCondition
	WithTTL             = domain.WithTTL
	WithPutTTL          = domain.WithPutTTL
)

// NewEntity builds an entity named name from a struct, a map with string keys
// or another entity. Struct fields are renamed through the gnosql tag:
//
//	type Person struct {
//		ID   string `gnosql:"_id,omitempty"`
//		Name string `gnosql:"name"`
//	}
func NewEntity(name string, in any) (*Entity, error) {
	return data.NewEntity(name, in)
}

// Decode copies an entity, or any value returned by a manager, into target,
// which must be a pointer. Fields are matched through the gnosql tag.
func Decode(source any, target any) error {
	return decoder.NewDecoder().Decode(source, target)
}

// SingleResult runs query and returns its only result. It returns
// [ErrNotFound] when nothing matches and [ErrNonUniqueResult] when more than
// one entity does.
func SingleResult(ctx context.Context, m Manager, query SelectQuery) (*Entity, error) {
	if query.Limit == 0 || query.Limit > 2 {
		query.Limit = 2
	}
	entities, err := m.Select(ctx, query)
	if err != nil {
		return nil, err
	}
	switch len(entities) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return entities[0], nil
	}
	return nil, ErrNonUniqueResult
}
