package schema

import "fmt"

// EntityDescriptor is the declarative definition of one entity type.
// Descriptors are what metadata sources produce: a manifest file, generated
// code, or a hand-written table in application setup. Zero-valued fields are
// filled with naming defaults during compilation.
type EntityDescriptor struct {
	Name       string               `json:"name" yaml:"name"`
	Table      string               `json:"table,omitempty" yaml:"table,omitempty"`
	Properties []PropertyDescriptor `json:"properties" yaml:"properties"`
}

// PropertyDescriptor declares a single property of an entity. A property is
// either scalar (Type, optional Column, optional PrimaryKey) or relational
// (Relation set); it cannot be both.
type PropertyDescriptor struct {
	Name       string              `json:"name" yaml:"name"`
	Type       ValueType           `json:"type,omitempty" yaml:"type,omitempty"`
	Column     string              `json:"column,omitempty" yaml:"column,omitempty"`
	PrimaryKey bool                `json:"primaryKey,omitempty" yaml:"primaryKey,omitempty"`
	Relation   *RelationDescriptor `json:"relation,omitempty" yaml:"relation,omitempty"`
}

// RelationDescriptor declares how a relational property maps to foreign keys.
//
// TargetName names the scalar foreign-key property backing the relation: for
// manyToOne a property on this entity, for oneToMany a property on the target
// entity. JunctionTable, OwnColumn and OtherColumn apply to manyToMany only.
type RelationDescriptor struct {
	Kind            RelationKind `json:"kind" yaml:"kind"`
	Target          string       `json:"target" yaml:"target"`
	TargetName      string       `json:"targetName,omitempty" yaml:"targetName,omitempty"`
	JunctionTable   string       `json:"junctionTable,omitempty" yaml:"junctionTable,omitempty"`
	OwnColumn       string       `json:"ownColumn,omitempty" yaml:"ownColumn,omitempty"`
	OtherColumn     string       `json:"otherColumn,omitempty" yaml:"otherColumn,omitempty"`
	CascadeOnSave   bool         `json:"cascadeOnSave,omitempty" yaml:"cascadeOnSave,omitempty"`
	CascadeOnDelete bool         `json:"cascadeOnDelete,omitempty" yaml:"cascadeOnDelete,omitempty"`
}

// Source supplies entity descriptors to a Registry. Describe is called once
// per entity type during registration, including types reached transitively
// through relations.
type Source interface {
	Describe(entityType string) (EntityDescriptor, error)
}

// StaticSource is a Source backed by a fixed set of descriptors.
type StaticSource struct {
	byName map[string]EntityDescriptor
}

// NewStaticSource builds a StaticSource from the given descriptors.
// Duplicate entity names are rejected.
func NewStaticSource(descriptors ...EntityDescriptor) (*StaticSource, error) {
	byName := make(map[string]EntityDescriptor, len(descriptors))
	for _, d := range descriptors {
		if d.Name == "" {
			return nil, &DefinitionError{Message: "entity descriptor has no name"}
		}
		if _, exists := byName[d.Name]; exists {
			return nil, &DefinitionError{Entity: d.Name, Message: "entity declared more than once"}
		}
		byName[d.Name] = d
	}
	return &StaticSource{byName: byName}, nil
}

// Describe returns the descriptor for the given entity type
func (s *StaticSource) Describe(entityType string) (EntityDescriptor, error) {
	d, ok := s.byName[entityType]
	if !ok {
		return EntityDescriptor{}, fmt.Errorf("%s: %w", entityType, ErrUnknownEntity)
	}
	return d, nil
}
