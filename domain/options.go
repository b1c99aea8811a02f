package domain

import "time"

// WithFields restricts the fields returned by a select.
func WithFields(fields ...string) SelectOption {
	return func(q *SelectQuery) {
		q.Fields = append(q.Fields, fields...)
	}
}

// WithCondition sets the select filter.
func WithCondition(c Condition) SelectOption {
	return func(q *SelectQuery) {
		q.Condition = &c
	}
}

// WithSort appends ordering rules to a select.
func WithSort(sorts ...Sort) SelectOption {
	return func(q *SelectQuery) {
		q.Sorts = append(q.Sorts, sorts...)
	}
}

// WithSkip sets the number of entities to skip.
func WithSkip(n int64) SelectOption {
	return func(q *SelectQuery) {
		q.Skip = n
	}
}

// WithLimit sets the maximum number of entities to return.
func WithLimit(n int64) SelectOption {
	return func(q *SelectQuery) {
		q.Limit = n
	}
}

// SelectOption configures a [SelectQuery] through the functional options
// pattern.
type SelectOption func(*SelectQuery)

// WithDeleteFields restricts a delete to the given fields.
func WithDeleteFields(fields ...string) DeleteOption {
	return func(q *DeleteQuery) {
		q.Fields = append(q.Fields, fields...)
	}
}

// WithDeleteCondition sets the delete filter.
func WithDeleteCondition(c Condition) DeleteOption {
	return func(q *DeleteQuery) {
		q.Condition = &c
	}
}

// DeleteOption configures a [DeleteQuery] through the functional options
// pattern.
type DeleteOption func(*DeleteQuery)

// WithTTL sets the time to live of inserted entities.
func WithTTL(ttl time.Duration) InsertOption {
	return func(o *InsertOptions) {
		o.TTL = ttl
	}
}

// InsertOption configures insert behavior through the functional options
// pattern.
type InsertOption func(*InsertOptions)

// InsertOptions contains parameters for customizing inserts.
type InsertOptions struct {
	// TTL is the entity expiry. Zero means no expiry.
	TTL time.Duration
}

// NewInsertOptions applies options over the zero value.
func NewInsertOptions(options ...InsertOption) InsertOptions {
	var o InsertOptions
	for _, option := range options {
		option(&o)
	}
	return o
}

// WithPutTTL sets the time to live of stored key-value pairs.
func WithPutTTL(ttl time.Duration) PutOption {
	return func(o *PutOptions) {
		o.TTL = ttl
	}
}

// PutOption configures key-value writes through the functional options
// pattern.
type PutOption func(*PutOptions)

// PutOptions contains parameters for customizing key-value writes.
type PutOptions struct {
	// TTL is the value expiry. Zero means no expiry.
	TTL time.Duration
}

// NewPutOptions applies options over the zero value.
func NewPutOptions(options ...PutOption) PutOptions {
	var o PutOptions
	for _, option := range options {
		option(&o)
	}
	return o
}
