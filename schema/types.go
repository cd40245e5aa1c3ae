// Package schema provides the property model for mapped entities.
// It defines the scalar and relation kinds a property can have, the
// declarative descriptors entity metadata is expressed in, the compiled
// Resource view the engine consumes, and the registry that resolves
// entity types to resources.
package schema

import "fmt"

// ValueType represents the scalar type of a simple property
type ValueType int

const (
	TypeInt ValueType = iota
	TypeFloat
	TypeString
	TypeBool
	TypeTime
)

// String returns the string representation of the value type
func (v ValueType) String() string {
	switch v {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeTime:
		return "time"
	default:
		return "unknown"
	}
}

// ParseValueType converts a string to a ValueType
func ParseValueType(s string) (ValueType, error) {
	switch s {
	case "int":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	case "string":
		return TypeString, nil
	case "bool":
		return TypeBool, nil
	case "time":
		return TypeTime, nil
	default:
		return 0, fmt.Errorf("unknown value type: %s", s)
	}
}

// Numeric returns true if the type is a numeric type
func (v ValueType) Numeric() bool {
	return v == TypeInt || v == TypeFloat
}

// Textual returns true if the type is a text type
func (v ValueType) Textual() bool {
	return v == TypeString
}

// MarshalText implements encoding.TextMarshaler so value types render as
// their names in JSON and YAML descriptors.
func (v ValueType) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (v *ValueType) UnmarshalText(text []byte) error {
	parsed, err := ParseValueType(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// RelationKind represents the kind of relationship a property declares
type RelationKind int

const (
	ManyToOne RelationKind = iota
	OneToMany
	ManyToMany
)

// String returns the string representation of the relation kind
func (r RelationKind) String() string {
	switch r {
	case ManyToOne:
		return "manyToOne"
	case OneToMany:
		return "oneToMany"
	case ManyToMany:
		return "manyToMany"
	default:
		return "unknown"
	}
}

// ParseRelationKind converts a string to a RelationKind
func ParseRelationKind(s string) (RelationKind, error) {
	switch s {
	case "manyToOne":
		return ManyToOne, nil
	case "oneToMany":
		return OneToMany, nil
	case "manyToMany":
		return ManyToMany, nil
	default:
		return 0, fmt.Errorf("unknown relation kind: %s", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (r RelationKind) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *RelationKind) UnmarshalText(text []byte) error {
	parsed, err := ParseRelationKind(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// PropertyKind classifies a compiled property
type PropertyKind int

const (
	KindSimple PropertyKind = iota
	KindPrimaryKey
	KindManyToOne
	KindOneToMany
	KindManyToMany
)

// String returns the string representation of the property kind
func (k PropertyKind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindPrimaryKey:
		return "primaryKey"
	case KindManyToOne:
		return "manyToOne"
	case KindOneToMany:
		return "oneToMany"
	case KindManyToMany:
		return "manyToMany"
	default:
		return "unknown"
	}
}

// Relational returns true if the property holds related entities rather
// than a column value
func (k PropertyKind) Relational() bool {
	return k == KindManyToOne || k == KindOneToMany || k == KindManyToMany
}

// propertyKind maps a relation kind to the matching property kind
func (r RelationKind) propertyKind() PropertyKind {
	switch r {
	case ManyToOne:
		return KindManyToOne
	case OneToMany:
		return KindOneToMany
	case ManyToMany:
		return KindManyToMany
	default:
		return KindSimple
	}
}
