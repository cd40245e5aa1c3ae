package storage

// Filter is an equality predicate over a single column. A slice of filters
// is conjunctive: every filter must match.
type Filter struct {
	Column string
	Value  any
}

// Eq builds an equality filter
func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}
