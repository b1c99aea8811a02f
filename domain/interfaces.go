// Package domain contains the vendor-neutral data model and the interfaces
// implemented by every driver.
//
// The model is made of [Entity] values holding ordered [Element] pairs, a
// recursive [Condition] tree used to filter them, and [SelectQuery] /
// [DeleteQuery] descriptions. Drivers in the adapter packages translate those
// into the native query language of each database.
package domain

import (
	"context"
	"time"
)

// Manager performs CRUD operations on entities stored in a document
// collection or a column family. Entity names map to the collection, table or
// index of the underlying engine.
type Manager interface {
	// Insert stores a new entity and returns the stored version, including
	// generated identifiers. [WithTTL] sets an expiry on engines that
	// support it.
	Insert(ctx context.Context, entity *Entity, options ...InsertOption) (*Entity, error)
	// InsertMany stores several entities, in order.
	InsertMany(ctx context.Context, entities []*Entity, options ...InsertOption) ([]*Entity, error)
	// Update replaces a stored entity identified by the driver id element.
	Update(ctx context.Context, entity *Entity) (*Entity, error)
	// UpdateMany updates several entities, in order.
	UpdateMany(ctx context.Context, entities []*Entity) ([]*Entity, error)
	// Delete removes entities matching the query.
	Delete(ctx context.Context, query DeleteQuery) error
	// Select returns entities matching the query.
	Select(ctx context.Context, query SelectQuery) ([]*Entity, error)
	// Count returns the number of entities stored under name.
	Count(ctx context.Context, name string) (int64, error)
	// Close releases the vendor client. Further calls return [ErrClosed].
	Close(ctx context.Context) error
}

// BucketManager stores values under string keys.
type BucketManager interface {
	// Put stores a value. [WithPutTTL] sets an expiry.
	Put(ctx context.Context, kv KeyValue, options ...PutOption) error
	// PutMany stores several values.
	PutMany(ctx context.Context, kvs []KeyValue, options ...PutOption) error
	// Get returns the value under key, or [ErrNotFound].
	Get(ctx context.Context, key string) (Value, error)
	// GetMany returns the stored pairs for keys. Missing keys are skipped.
	GetMany(ctx context.Context, keys ...string) ([]KeyValue, error)
	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// Close releases the vendor client.
	Close(ctx context.Context) error
}

// IDGenerator creates identifiers for entities inserted without one.
type IDGenerator interface {
	// GenerateID returns a new unique identifier.
	GenerateID() (string, error)
}

// Decoder converts entities or plain values into Go values.
type Decoder interface {
	// Decode decodes source into target, which must be a pointer.
	Decode(source any, target any) error
}

// Comparer provides ordering between values of possibly different types.
type Comparer interface {
	// Compare returns -1, 0, or 1 based on the comparison of two values.
	Compare(any, any) (int, error)
	// Comparable returns true if two values can be ordered against each
	// other.
	Comparable(any, any) bool
}

// FieldNavigator resolves dotted field paths inside entities and element
// values.
type FieldNavigator interface {
	// GetField returns the values found at path. Lists of sub-documents
	// are expanded, so more than one value can be returned. The bool is
	// false when the path does not exist.
	GetField(obj any, path string) ([]any, bool)
}

// Matcher evaluates a condition tree against an entity without any database.
type Matcher interface {
	// Match reports whether entity satisfies condition.
	Match(entity *Entity, condition Condition) (bool, error)
}

// Projector restricts entities to a set of fields.
type Projector interface {
	// Project returns a copy of entity holding only fields. Dotted paths
	// keep part of a sub-document. An empty field list returns the entity
	// unchanged.
	Project(entity *Entity, fields []string) *Entity
}

// TimeGetter provides the current time.
type TimeGetter interface {
	// GetTime returns the current time.
	GetTime() time.Time
}
