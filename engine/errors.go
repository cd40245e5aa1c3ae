package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain failure classes. The typed errors below
// match these through errors.Is, so callers can branch on the class without
// losing the entity context the typed form carries.
var (
	// ErrNotFound is returned when an operation targets a row that does
	// not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateKey is returned when create is given a primary key that
	// already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrUnknownProperty is returned when a filter names a property the
	// resource does not declare as a scalar.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrCascadeDepth is returned when a cascading save recurses deeper
	// than the engine allows.
	ErrCascadeDepth = errors.New("cascade depth exceeded")
)

// NotFoundError reports a missing row for an entity type and key
type NotFoundError struct {
	Entity string
	Key    any
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Key == nil {
		return fmt.Sprintf("%s: no primary key", e.Entity)
	}
	return fmt.Sprintf("%s with key %v not found", e.Entity, e.Key)
}

// Is reports whether the target matches ErrNotFound
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// IsNotFound returns true if the error is a NotFoundError
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// DuplicateKeyError reports a create with an already-used key
type DuplicateKeyError struct {
	Entity string
	Key    any
}

// Error implements the error interface
func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s with key %v already exists", e.Entity, e.Key)
}

// Is reports whether the target matches ErrDuplicateKey
func (e *DuplicateKeyError) Is(err error) bool {
	return err == ErrDuplicateKey
}

// IsDuplicateKey returns true if the error is a DuplicateKeyError
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

// UnknownPropertyError reports a filter over an undeclared or relational
// property
type UnknownPropertyError struct {
	Entity   string
	Property string
}

// Error implements the error interface
func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("%s has no filterable property %s", e.Entity, e.Property)
}

// Is reports whether the target matches ErrUnknownProperty
func (e *UnknownPropertyError) Is(err error) bool {
	return err == ErrUnknownProperty
}

// IsUnknownProperty returns true if the error is an UnknownPropertyError
func IsUnknownProperty(err error) bool {
	return errors.Is(err, ErrUnknownProperty)
}
