package schema

import "fmt"

// compileResource compiles a descriptor into a Resource. Naming defaults are
// applied and everything checkable within a single entity is validated here;
// links into other entities are validated by the registry once the reachable
// set is registered.
func compileResource(d EntityDescriptor) (*Resource, error) {
	if d.Name == "" {
		return nil, &DefinitionError{Message: "entity has no name"}
	}

	table := d.Table
	if table == "" {
		table = defaultTableName(d.Name)
	}

	res := &Resource{
		Name:       d.Name,
		Table:      table,
		Properties: make([]Property, 0, len(d.Properties)),
	}

	seenNames := make(map[string]bool, len(d.Properties))
	seenColumns := make(map[string]string)

	for _, pd := range d.Properties {
		if pd.Name == "" {
			return nil, &DefinitionError{Entity: d.Name, Message: "property has no name"}
		}
		if seenNames[pd.Name] {
			return nil, &DefinitionError{Entity: d.Name, Property: pd.Name, Message: "property declared more than once"}
		}
		seenNames[pd.Name] = true

		prop, err := compileProperty(d.Name, pd)
		if err != nil {
			return nil, err
		}

		if prop.Column != "" {
			if other, taken := seenColumns[prop.Column]; taken {
				return nil, &DefinitionError{
					Entity:   d.Name,
					Property: pd.Name,
					Message:  fmt.Sprintf("column %s already mapped by property %s", prop.Column, other),
				}
			}
			seenColumns[prop.Column] = pd.Name
		}

		res.Properties = append(res.Properties, prop)
	}

	if err := validatePrimaryKey(res); err != nil {
		return nil, err
	}
	if err := validateOwnForeignKeys(res); err != nil {
		return nil, err
	}

	res.index()
	return res, nil
}

// compileProperty compiles a single property descriptor
func compileProperty(entity string, pd PropertyDescriptor) (Property, error) {
	if pd.Relation == nil {
		kind := KindSimple
		if pd.PrimaryKey {
			kind = KindPrimaryKey
		}
		column := pd.Column
		if column == "" {
			column = toSnakeCase(pd.Name)
		}
		return Property{
			Name:   pd.Name,
			Type:   pd.Type,
			Column: column,
			Kind:   kind,
		}, nil
	}

	if pd.PrimaryKey {
		return Property{}, &DefinitionError{Entity: entity, Property: pd.Name, Message: "relation property cannot be the primary key"}
	}
	if pd.Column != "" {
		return Property{}, &DefinitionError{Entity: entity, Property: pd.Name, Message: "relation property cannot map a column"}
	}
	if pd.Relation.Target == "" {
		return Property{}, &DefinitionError{Entity: entity, Property: pd.Name, Message: "relation has no target entity"}
	}

	rel := compileRelation(entity, pd.Name, *pd.Relation)
	if rel.Kind == ManyToMany && rel.OwnColumn == rel.OtherColumn {
		return Property{}, &DefinitionError{
			Entity:   entity,
			Property: pd.Name,
			Message:  fmt.Sprintf("junction columns are both %s; set ownColumn and otherColumn explicitly", rel.OwnColumn),
		}
	}

	return Property{
		Name:     pd.Name,
		Kind:     rel.Kind.propertyKind(),
		Relation: rel,
	}, nil
}

// compileRelation applies naming defaults to a relation descriptor
func compileRelation(entity, property string, rd RelationDescriptor) *Relation {
	rel := &Relation{
		Kind:            rd.Kind,
		Target:          rd.Target,
		TargetName:      rd.TargetName,
		JunctionTable:   rd.JunctionTable,
		OwnColumn:       rd.OwnColumn,
		OtherColumn:     rd.OtherColumn,
		CascadeOnSave:   rd.CascadeOnSave,
		CascadeOnDelete: rd.CascadeOnDelete,
	}

	switch rd.Kind {
	case ManyToOne:
		if rel.TargetName == "" {
			rel.TargetName = property + "Id"
		}
	case OneToMany:
		if rel.TargetName == "" {
			rel.TargetName = lowerCamel(entity) + "Id"
		}
	case ManyToMany:
		if rel.JunctionTable == "" {
			rel.JunctionTable = toSnakeCase(entity) + "_" + defaultTableName(rd.Target)
		}
		if rel.OwnColumn == "" {
			rel.OwnColumn = toSnakeCase(entity) + "_id"
		}
		if rel.OtherColumn == "" {
			rel.OtherColumn = toSnakeCase(rd.Target) + "_id"
		}
	}

	return rel
}

// validatePrimaryKey ensures the resource declares exactly one primary key
// of a key-capable type
func validatePrimaryKey(res *Resource) error {
	var pks []*Property
	for i := range res.Properties {
		if res.Properties[i].Kind == KindPrimaryKey {
			pks = append(pks, &res.Properties[i])
		}
	}

	if len(pks) == 0 {
		return &DefinitionError{Entity: res.Name, Message: "entity must declare a primary key"}
	}
	if len(pks) > 1 {
		return &DefinitionError{
			Entity:  res.Name,
			Message: fmt.Sprintf("entity declares %d primary keys, expected 1", len(pks)),
		}
	}

	pk := pks[0]
	if !pk.Type.Numeric() && !pk.Type.Textual() {
		return &DefinitionError{
			Entity:   res.Name,
			Property: pk.Name,
			Message:  fmt.Sprintf("primary key must be numeric or string, got %s", pk.Type),
		}
	}
	return nil
}

// validateOwnForeignKeys checks that every manyToOne relation names a simple
// property of this entity as its foreign key
func validateOwnForeignKeys(res *Resource) error {
	for i := range res.Properties {
		p := &res.Properties[i]
		if p.Kind != KindManyToOne {
			continue
		}
		fk := findProperty(res, p.Relation.TargetName)
		if fk == nil {
			return &DefinitionError{
				Entity:   res.Name,
				Property: p.Name,
				Message:  fmt.Sprintf("foreign key property %s not found", p.Relation.TargetName),
			}
		}
		if fk.Kind != KindSimple {
			return &DefinitionError{
				Entity:   res.Name,
				Property: p.Name,
				Message:  fmt.Sprintf("foreign key property %s must be a simple property", p.Relation.TargetName),
			}
		}
	}
	return nil
}

// findProperty scans the property slice directly; usable before index()
func findProperty(res *Resource, name string) *Property {
	for i := range res.Properties {
		if res.Properties[i].Name == name {
			return &res.Properties[i]
		}
	}
	return nil
}
