package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cascade-orm/cascade/schema"
	"github.com/cascade-orm/cascade/storage"
)

// visitKey identifies one entity row in a delete cascade's visited set
type visitKey struct {
	entityType string
	key        any
}

// Delete removes the entity's row, first recursively removing everything its
// cascade-on-delete relations reach. A missing or absent primary key fails
// with NotFound. There is no rollback: a failure partway leaves the branches
// already deleted gone.
func (e *Engine) Delete(ctx context.Context, entityType string, ent Entity) error {
	if err := e.delete(ctx, entityType, ent, make(map[visitKey]bool)); err != nil {
		return err
	}
	e.log.Debug("delete", zap.String("entity", entityType))
	return nil
}

// delete removes one entity row child-first. The visited set breaks cyclic
// cascade chains; deletion is sequential so related rows are always gone
// before the row that referenced them.
func (e *Engine) delete(ctx context.Context, entityType string, ent Entity, visited map[visitKey]bool) error {
	if ent == nil {
		return fmt.Errorf("%s: nil entity", entityType)
	}
	res, err := e.registry.Lookup(entityType)
	if err != nil {
		return err
	}

	pk := res.PrimaryKey()
	key := ent[pk.Name]
	if keyAbsent(pk, key) {
		return &NotFoundError{Entity: res.Name, Key: key}
	}
	if err := validateRelationValues(res, ent); err != nil {
		return err
	}

	vk := visitKey{entityType: entityType, key: keyToken(key)}
	if visited[vk] {
		return nil
	}
	visited[vk] = true

	// Read the row itself so cascades see its stored foreign keys even when
	// the caller passed a bare key entity. Doubles as the existence check.
	rows, err := e.store.Read(ctx, res.Table, res.Columns(),
		[]storage.Filter{storage.Eq(pk.Column, key)}, 1)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return &NotFoundError{Entity: res.Name, Key: key}
	}
	ent = withStoredScalars(res, ent, rows[0])

	for _, p := range res.Relations() {
		if !p.Relation.CascadeOnDelete {
			continue
		}
		var err error
		switch p.Kind {
		case schema.KindManyToOne:
			err = e.deleteManyToOne(ctx, ent, p, visited)
		case schema.KindOneToMany:
			err = e.deleteOneToMany(ctx, res, ent, p, key, visited)
		case schema.KindManyToMany:
			err = e.deleteManyToMany(ctx, ent, p, key, visited)
		}
		if err != nil {
			return err
		}
	}

	return e.store.Delete(ctx, res.Table, []storage.Filter{storage.Eq(pk.Column, key)})
}

// withStoredScalars overlays the stored row's scalar values on the caller's
// entity. Stored values win for scalars since they are the state being
// deleted; loaded relation values the caller carries are kept.
func withStoredScalars(res *schema.Resource, ent Entity, row storage.Record) Entity {
	merged := make(Entity, len(ent)+len(row))
	for k, v := range ent {
		merged[k] = v
	}
	pk := res.PrimaryKey()
	merged[pk.Name] = row[pk.Column]
	for _, p := range res.Simple() {
		merged[p.Name] = row[p.Column]
	}
	return merged
}

// deleteBranch deletes one related entity inside a cascade. A branch whose
// row is already gone is fine; the goal state is reached either way.
func (e *Engine) deleteBranch(ctx context.Context, entityType string, ent Entity, visited map[visitKey]bool) error {
	if err := e.delete(ctx, entityType, ent, visited); err != nil && !IsNotFound(err) {
		return err
	}
	return nil
}

// deleteManyToOne removes the entity this row's foreign key points at,
// using the loaded value when present and reading it otherwise
func (e *Engine) deleteManyToOne(ctx context.Context, ent Entity, p *schema.Property, visited map[visitKey]bool) error {
	rel := p.Relation

	if raw, ok := ent[p.Name]; ok && raw != nil {
		related, ok := asEntity(raw)
		if !ok {
			return fmt.Errorf("%s: expected an entity value, got %T", p.Name, raw)
		}
		return e.deleteBranch(ctx, rel.Target, related, visited)
	}

	target, err := e.registry.Lookup(rel.Target)
	if err != nil {
		return err
	}
	fk := ent[rel.TargetName]
	if fk == nil {
		return nil
	}
	rows, err := e.store.Read(ctx, target.Table, target.Columns(),
		[]storage.Filter{storage.Eq(target.PrimaryKey().Column, fk)}, 1)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return e.deleteBranch(ctx, rel.Target, hydrate(target, rows[0]), visited)
}

// deleteOneToMany removes the rows whose foreign key references this entity
func (e *Engine) deleteOneToMany(ctx context.Context, res *schema.Resource, ent Entity, p *schema.Property, key any, visited map[visitKey]bool) error {
	rel := p.Relation

	if raw, ok := ent[p.Name]; ok && raw != nil {
		children, ok := asEntities(raw)
		if !ok {
			return fmt.Errorf("%s.%s: expected an entity list, got %T", res.Name, p.Name, raw)
		}
		for _, child := range children {
			if err := e.deleteBranch(ctx, rel.Target, child, visited); err != nil {
				return err
			}
		}
		return nil
	}

	target, err := e.registry.Lookup(rel.Target)
	if err != nil {
		return err
	}
	fkProp, ok := target.Property(rel.TargetName)
	if !ok {
		return &UnknownPropertyError{Entity: target.Name, Property: rel.TargetName}
	}
	rows, err := e.store.Read(ctx, target.Table, target.Columns(),
		[]storage.Filter{storage.Eq(fkProp.Column, key)}, 0)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := e.deleteBranch(ctx, rel.Target, hydrate(target, row), visited); err != nil {
			return err
		}
	}
	return nil
}

// deleteManyToMany drops every junction link of this row and then removes
// the linked entities. Links go first so no junction row outlives either
// side it references.
func (e *Engine) deleteManyToMany(ctx context.Context, ent Entity, p *schema.Property, key any, visited map[visitKey]bool) error {
	rel := p.Relation
	target, err := e.registry.Lookup(rel.Target)
	if err != nil {
		return err
	}

	var related []Entity
	if raw, ok := ent[p.Name]; ok && raw != nil {
		related, ok = asEntities(raw)
		if !ok {
			return fmt.Errorf("%s: expected an entity list, got %T", p.Name, raw)
		}
	} else {
		links, err := e.store.Read(ctx, rel.JunctionTable, []string{rel.OtherColumn},
			[]storage.Filter{storage.Eq(rel.OwnColumn, key)}, 0)
		if err != nil {
			return err
		}
		for _, link := range links {
			rows, err := e.store.Read(ctx, target.Table, target.Columns(),
				[]storage.Filter{storage.Eq(target.PrimaryKey().Column, link[rel.OtherColumn])}, 1)
			if err != nil {
				return err
			}
			if len(rows) > 0 {
				related = append(related, hydrate(target, rows[0]))
			}
		}
	}

	if err := e.store.Delete(ctx, rel.JunctionTable, []storage.Filter{storage.Eq(rel.OwnColumn, key)}); err != nil {
		return err
	}

	for _, entry := range related {
		if err := e.deleteBranch(ctx, rel.Target, entry, visited); err != nil {
			return err
		}
	}
	return nil
}
