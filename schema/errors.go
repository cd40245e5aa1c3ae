package schema

import (
	"errors"
	"fmt"
)

// ErrNotRegistered is wrapped by Lookup when an entity type has not been
// registered.
var ErrNotRegistered = errors.New("entity type not registered")

// ErrUnknownEntity is wrapped by sources that have no descriptor for a
// requested entity type.
var ErrUnknownEntity = errors.New("unknown entity type")

// DefinitionError describes an invalid entity definition. Definitions are
// validated when registered, never at query time.
type DefinitionError struct {
	Entity   string
	Property string
	Message  string
}

// Error implements the error interface
func (e *DefinitionError) Error() string {
	switch {
	case e.Entity != "" && e.Property != "":
		return fmt.Sprintf("%s.%s: %s", e.Entity, e.Property, e.Message)
	case e.Entity != "":
		return fmt.Sprintf("%s: %s", e.Entity, e.Message)
	default:
		return e.Message
	}
}

// IsDefinitionError reports whether err is a DefinitionError
func IsDefinitionError(err error) bool {
	var de *DefinitionError
	return errors.As(err, &de)
}
