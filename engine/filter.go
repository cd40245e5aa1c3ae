package engine

import (
	"github.com/cascade-orm/cascade/schema"
	"github.com/cascade-orm/cascade/storage"
)

// Filter is an equality predicate over a named property. A slice of filters
// is conjunctive.
type Filter struct {
	Property string
	Value    any
}

// Eq builds an equality filter
func Eq(property string, value any) Filter {
	return Filter{Property: property, Value: value}
}

// columnFilters translates property filters into column filters through the
// resource. Filtering on an undeclared or relation-valued property fails
// before the storage port is touched.
func columnFilters(res *schema.Resource, filters []Filter) ([]storage.Filter, error) {
	if len(filters) == 0 {
		return nil, nil
	}

	out := make([]storage.Filter, 0, len(filters))
	for _, f := range filters {
		p, ok := res.Property(f.Property)
		if !ok || p.Kind.Relational() {
			return nil, &UnknownPropertyError{Entity: res.Name, Property: f.Property}
		}
		out = append(out, storage.Eq(p.Column, f.Value))
	}
	return out, nil
}
