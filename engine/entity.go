package engine

import (
	"fmt"

	"github.com/cascade-orm/cascade/schema"
)

// Entity is one entity instance keyed by property name. Scalar properties
// are always present after a read; relation properties appear only when a
// path requested them.
type Entity map[string]any

// validateRelationValues rejects malformed relation values up front, before
// any storage call has run. Cascade processing later in the pipeline can then
// assume every present relation value has the right shape.
func validateRelationValues(res *schema.Resource, ent Entity) error {
	for _, prop := range res.Relations() {
		raw, ok := ent[prop.Name]
		if !ok || raw == nil {
			continue
		}
		if prop.Kind == schema.KindManyToOne {
			if _, ok := asEntity(raw); !ok {
				return fmt.Errorf("%s.%s: expected an entity value, got %T", res.Name, prop.Name, raw)
			}
			continue
		}
		list, ok := asEntities(raw)
		if !ok {
			return fmt.Errorf("%s.%s: expected a list of entities, got %T", res.Name, prop.Name, raw)
		}
		for i, child := range list {
			if child == nil {
				return fmt.Errorf("%s.%s: entity at index %d is nil", res.Name, prop.Name, i)
			}
		}
	}
	return nil
}

// asEntity coerces a relation value into an Entity. Values decoded from
// JSON or built as plain map literals arrive as map[string]any.
func asEntity(v any) (Entity, bool) {
	switch m := v.(type) {
	case Entity:
		return m, true
	case map[string]any:
		return Entity(m), true
	default:
		return nil, false
	}
}

// asEntities coerces a to-many relation value into a slice of entities
func asEntities(v any) ([]Entity, bool) {
	switch list := v.(type) {
	case []Entity:
		return list, true
	case []map[string]any:
		out := make([]Entity, len(list))
		for i, m := range list {
			out[i] = Entity(m)
		}
		return out, true
	case []any:
		out := make([]Entity, len(list))
		for i, item := range list {
			ent, ok := asEntity(item)
			if !ok {
				return nil, false
			}
			out[i] = ent
		}
		return out, true
	default:
		return nil, false
	}
}

// keyAbsent reports whether v is an absent primary key value: nil, a missing
// entry, or the zero value of the declared key type. Zero counts as absent
// so entities built as map literals can leave the key out or zeroed and
// still get a storage-assigned one.
func keyAbsent(pk *schema.Property, v any) bool {
	if v == nil {
		return true
	}
	switch {
	case pk.Type.Numeric():
		if n, ok := asInt64(v); ok {
			return n == 0
		}
		if f, ok := asFloat64(v); ok {
			return f == 0
		}
	case pk.Type.Textual():
		if s, ok := v.(string); ok {
			return s == ""
		}
	}
	return false
}

// keysEqual compares two key values by magnitude so int and int64 forms of
// the same key match, the way they would in a database
func keysEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	if ai, ok := asInt64(a); ok {
		if bi, ok := asInt64(b); ok {
			return ai == bi
		}
		return false
	}
	if af, ok := asFloat64(a); ok {
		if bf, ok := asFloat64(b); ok {
			return af == bf
		}
		return false
	}
	return a == b
}

// keyToken collapses a key value to a canonical comparable form for use as a
// map key in visited sets
func keyToken(v any) any {
	if n, ok := asInt64(v); ok {
		return n
	}
	if f, ok := asFloat64(v); ok {
		return f
	}
	return v
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
