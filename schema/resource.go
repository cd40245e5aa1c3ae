package schema

// Relation is the compiled form of a RelationDescriptor with all naming
// defaults applied.
type Relation struct {
	Kind            RelationKind
	Target          string
	TargetName      string
	JunctionTable   string
	OwnColumn       string
	OtherColumn     string
	CascadeOnSave   bool
	CascadeOnDelete bool
}

// Property is a compiled entity property. Scalar properties carry a value
// type and a column; relational properties carry a Relation instead.
type Property struct {
	Name     string
	Type     ValueType
	Column   string
	Kind     PropertyKind
	Relation *Relation
}

// Resource is the compiled view of one entity type: its table, its
// properties in declaration order, and precomputed views over them.
type Resource struct {
	Name       string
	Table      string
	Properties []Property

	pk        int
	simple    []int
	relations []int
	columns   []string
	byName    map[string]int
}

// index precomputes the derived views. Called once at the end of compilation,
// after the property set is final.
func (r *Resource) index() {
	r.pk = -1
	r.byName = make(map[string]int, len(r.Properties))
	r.columns = r.columns[:0]

	for i, p := range r.Properties {
		r.byName[p.Name] = i
		switch p.Kind {
		case KindPrimaryKey:
			r.pk = i
			r.columns = append(r.columns, p.Column)
		case KindSimple:
			r.simple = append(r.simple, i)
			r.columns = append(r.columns, p.Column)
		default:
			r.relations = append(r.relations, i)
		}
	}
}

// PrimaryKey returns the primary key property
func (r *Resource) PrimaryKey() *Property {
	return &r.Properties[r.pk]
}

// Simple returns the non-key scalar properties in declaration order
func (r *Resource) Simple() []*Property {
	out := make([]*Property, len(r.simple))
	for i, idx := range r.simple {
		out[i] = &r.Properties[idx]
	}
	return out
}

// Relations returns the relational properties in declaration order
func (r *Resource) Relations() []*Property {
	out := make([]*Property, len(r.relations))
	for i, idx := range r.relations {
		out[i] = &r.Properties[idx]
	}
	return out
}

// Columns returns the column names backing the primary key and simple
// properties, in declaration order. These are the columns reads project
// and writes persist.
func (r *Resource) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Property returns the property with the given name
func (r *Resource) Property(name string) (*Property, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return &r.Properties[idx], true
}
