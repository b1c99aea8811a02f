package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a key or a single result is requested and
	// nothing matches.
	ErrNotFound = errors.New("not found")
	// ErrNonUniqueResult is returned when a single result is requested but
	// more than one entity matches.
	ErrNonUniqueResult = errors.New("query returned more than one result")
	// ErrClosed is returned by managers after Close was called.
	ErrClosed = errors.New("manager is closed")
	// ErrUnsupportedOperation is returned when the engine cannot perform the
	// requested operation, such as inserting with a TTL on an engine without
	// expiry.
	ErrUnsupportedOperation = errors.New("operation not supported by this driver")
	// ErrMissingID is returned when an update is requested for an entity
	// without the driver id element.
	ErrMissingID = errors.New("entity has no id element")
	// ErrDuplicateID is returned when inserting an entity whose id is
	// already stored.
	ErrDuplicateID = errors.New("entity id already exists")
	// ErrEmptyEntity is returned when inserting an entity without elements.
	ErrEmptyEntity = errors.New("entity has no elements")
	// ErrNoEntityName is returned when an entity or query has no name.
	ErrNoEntityName = errors.New("entity name is empty")
	// ErrNilEntity is returned when a nil entity is passed to a manager.
	ErrNilEntity = errors.New("entity is nil")
	// ErrNegativePagination is returned when a query has negative skip or
	// limit.
	ErrNegativePagination = errors.New("skip and limit cannot be negative")
	// ErrTargetNil is returned when a nil decode target is provided.
	ErrTargetNil = errors.New("target interface is nil")
	// ErrNonPointer is returned when a decode target is not a pointer.
	ErrNonPointer = errors.New("target must be a pointer")
)

// ErrInvalidCondition is returned by [Condition.Validate] for malformed
// condition nodes.
type ErrInvalidCondition struct {
	Operator Operator
	Reason   string
}

// Error implements [error].
func (e ErrInvalidCondition) Error() string {
	return fmt.Sprintf("invalid %s condition: %s", e.Operator, e.Reason)
}

// ErrUnsupportedCondition is returned when a driver cannot express an
// operator in its native query language.
type ErrUnsupportedCondition struct {
	Driver   string
	Operator Operator
}

// Error implements [error].
func (e ErrUnsupportedCondition) Error() string {
	return fmt.Sprintf("%s does not support %s conditions", e.Driver, e.Operator)
}

// ErrDriver wraps a failure returned by a vendor client.
type ErrDriver struct {
	Driver string
	Op     string
	Err    error
}

// Error implements [error].
func (e *ErrDriver) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Driver, e.Op, e.Err)
}

// Unwrap returns the vendor error.
func (e *ErrDriver) Unwrap() error { return e.Err }

// WrapDriver returns err wrapped in [ErrDriver], or nil when err is nil.
// Errors already wrapped and domain sentinels are returned unchanged.
func WrapDriver(driver, op string, err error) error {
	if err == nil {
		return nil
	}
	var de *ErrDriver
	if errors.As(err, &de) || isDomainErr(err) {
		return err
	}
	return &ErrDriver{Driver: driver, Op: op, Err: err}
}

func isDomainErr(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrNonUniqueResult, ErrClosed, ErrUnsupportedOperation,
		ErrMissingID, ErrDuplicateID, ErrEmptyEntity, ErrNoEntityName, ErrNilEntity,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	var ic ErrInvalidCondition
	var uc ErrUnsupportedCondition
	return errors.As(err, &ic) || errors.As(err, &uc)
}

// ErrDecode is returned when a stored value cannot be decoded into the
// requested target.
type ErrDecode struct {
	Source any
	Target any
}

// Error implements [error].
func (e ErrDecode) Error() string {
	return fmt.Sprintf("cannot decode %T into %T", e.Source, e.Target)
}

// ErrCannotCompare is returned by [Comparer.Compare] when two values have no
// defined order.
type ErrCannotCompare struct {
	A any
	B any
}

// Error implements [error].
func (e ErrCannotCompare) Error() string {
	return fmt.Sprintf("cannot compare %T and %T", e.A, e.B)
}
