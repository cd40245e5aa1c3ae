// Package schema provides a registry for resolving entity types to compiled resources
package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Registry compiles and holds the resources of registered entity types.
// Registering one type pulls in every type reachable through its declared
// relations. A Registry is an explicit handle: construct one per engine and
// pass it where needed; there is no package-level instance.
type Registry struct {
	source    Source
	resources map[string]*Resource
	mu        sync.RWMutex
}

// New creates a registry over the given metadata source
func New(source Source) *Registry {
	return &Registry{
		source:    source,
		resources: make(map[string]*Resource),
	}
}

// Register compiles the entity type and every type reachable from it through
// declared relations, validating definitions and cross-entity links along the
// way. Registering an already-registered type returns the existing resource.
// On error nothing is registered.
func (r *Registry) Register(entityType string) (*Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if res, exists := r.resources[entityType]; exists {
		return res, nil
	}

	// Stage the reachable set first so a failure leaves the registry untouched
	staged := make(map[string]*Resource)
	if err := r.compileReachable(entityType, staged); err != nil {
		return nil, err
	}
	if err := r.validateLinks(staged); err != nil {
		return nil, err
	}

	for name, res := range staged {
		r.resources[name] = res
	}
	return staged[entityType], nil
}

// compileReachable compiles entityType and recurses into relation targets,
// stopping at types already registered or already staged. The stop condition
// makes cyclic entity graphs terminate.
func (r *Registry) compileReachable(entityType string, staged map[string]*Resource) error {
	if _, exists := r.resources[entityType]; exists {
		return nil
	}
	if _, exists := staged[entityType]; exists {
		return nil
	}

	desc, err := r.source.Describe(entityType)
	if err != nil {
		return fmt.Errorf("describe %s: %w", entityType, err)
	}
	if desc.Name != "" && desc.Name != entityType {
		return &DefinitionError{
			Entity:  entityType,
			Message: fmt.Sprintf("source described entity %s instead", desc.Name),
		}
	}
	desc.Name = entityType

	res, err := compileResource(desc)
	if err != nil {
		return err
	}
	staged[entityType] = res

	for _, p := range res.Relations() {
		if err := r.compileReachable(p.Relation.Target, staged); err != nil {
			return err
		}
	}
	return nil
}

// validateLinks checks the parts of each staged resource that reach into
// other resources: oneToMany foreign keys live on the target entity, and
// foreign key types must match the primary key they reference.
func (r *Registry) validateLinks(staged map[string]*Resource) error {
	find := func(name string) *Resource {
		if res, ok := staged[name]; ok {
			return res
		}
		return r.resources[name]
	}

	for _, res := range staged {
		for _, p := range res.Relations() {
			target := find(p.Relation.Target)
			if target == nil {
				return &DefinitionError{
					Entity:   res.Name,
					Property: p.Name,
					Message:  fmt.Sprintf("references unregistered entity %s", p.Relation.Target),
				}
			}

			switch p.Kind {
			case KindManyToOne:
				fk, _ := res.Property(p.Relation.TargetName)
				if fk.Type != target.PrimaryKey().Type {
					return &DefinitionError{
						Entity:   res.Name,
						Property: p.Name,
						Message: fmt.Sprintf("foreign key %s is %s but %s keys are %s",
							fk.Name, fk.Type, target.Name, target.PrimaryKey().Type),
					}
				}
			case KindOneToMany:
				fk, ok := target.Property(p.Relation.TargetName)
				if !ok {
					return &DefinitionError{
						Entity:   res.Name,
						Property: p.Name,
						Message:  fmt.Sprintf("target %s has no foreign key property %s", target.Name, p.Relation.TargetName),
					}
				}
				if fk.Kind != KindSimple {
					return &DefinitionError{
						Entity:   res.Name,
						Property: p.Name,
						Message:  fmt.Sprintf("foreign key property %s.%s must be a simple property", target.Name, fk.Name),
					}
				}
				if fk.Type != res.PrimaryKey().Type {
					return &DefinitionError{
						Entity:   res.Name,
						Property: p.Name,
						Message: fmt.Sprintf("foreign key %s.%s is %s but %s keys are %s",
							target.Name, fk.Name, fk.Type, res.Name, res.PrimaryKey().Type),
					}
				}
			}
		}
	}
	return nil
}

// Lookup returns the resource for a registered entity type
func (r *Registry) Lookup(entityType string) (*Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, exists := r.resources[entityType]
	if !exists {
		return nil, fmt.Errorf("%s: %w", entityType, ErrNotRegistered)
	}
	return res, nil
}

// Resources returns a copy of all registered resources keyed by entity type
func (r *Registry) Resources() map[string]*Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*Resource, len(r.resources))
	for name, res := range r.resources {
		out[name] = res
	}
	return out
}

// Names returns the registered entity type names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.resources))
	for name := range r.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered entity types
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.resources)
}

// Clear removes all registered resources (useful for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resources = make(map[string]*Resource)
}
