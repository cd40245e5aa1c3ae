package engine

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cascade-orm/cascade/schema"
	"github.com/cascade-orm/cascade/storage"
)

// Read returns the entities of the given type matching opts.Filters, with
// every relation selected by opts.Paths resolved and attached
func (e *Engine) Read(ctx context.Context, entityType string, opts ReadOptions) ([]Entity, error) {
	res, err := e.registry.Lookup(entityType)
	if err != nil {
		return nil, err
	}
	cfs, err := columnFilters(res, opts.Filters)
	if err != nil {
		return nil, err
	}

	rows, err := e.store.Read(ctx, res.Table, res.Columns(), cfs, opts.Limit)
	if err != nil {
		return nil, err
	}

	entities := make([]Entity, len(rows))
	for i, row := range rows {
		entities[i] = hydrate(res, row)
	}

	if err := e.resolveRelations(ctx, res, entities, opts.Paths); err != nil {
		return nil, err
	}

	e.log.Debug("read", zap.String("entity", entityType), zap.Int("rows", len(entities)))
	return entities, nil
}

// ReadByID returns the entity with the given primary key, or nil with no
// error when no such row exists
func (e *Engine) ReadByID(ctx context.Context, entityType string, key any, paths ...string) (Entity, error) {
	res, err := e.registry.Lookup(entityType)
	if err != nil {
		return nil, err
	}

	entities, err := e.Read(ctx, entityType, ReadOptions{
		Filters: []Filter{Eq(res.PrimaryKey().Name, key)},
		Paths:   paths,
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, nil
	}
	return entities[0], nil
}

// hydrate maps a stored row into an entity keyed by property name. Every
// scalar property is present, even when its column came back null; relation
// properties stay unset until a path requests them.
func hydrate(res *schema.Resource, row storage.Record) Entity {
	ent := make(Entity, len(row))
	pk := res.PrimaryKey()
	ent[pk.Name] = row[pk.Column]
	for _, p := range res.Simple() {
		ent[p.Name] = row[p.Column]
	}
	return ent
}

// resolveRelations resolves every requested relation for every entity
// concurrently and attaches the results after all resolutions finished.
// The first failure cancels in-flight siblings; attaching is deferred past
// the join so no goroutine ever writes into a shared entity map.
func (e *Engine) resolveRelations(ctx context.Context, res *schema.Resource, entities []Entity, paths []string) error {
	if len(entities) == 0 || len(paths) == 0 {
		return nil
	}

	type task struct {
		entity Entity
		prop   *schema.Property
		sub    []string
	}
	var tasks []task
	for _, p := range res.Relations() {
		if !requested(paths, p.Name) {
			continue
		}
		sub := pathsInto(paths, p.Name)
		for _, ent := range entities {
			tasks = append(tasks, task{entity: ent, prop: p, sub: sub})
		}
	}
	if len(tasks) == 0 {
		return nil
	}

	results := make([]any, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			value, err := e.resolveRelation(gctx, res, t.entity, t.prop, t.sub)
			if err != nil {
				return err
			}
			results[i] = value
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, t := range tasks {
		t.entity[t.prop.Name] = results[i]
	}
	return nil
}

// resolveRelation loads the value of one relation property for one entity
func (e *Engine) resolveRelation(ctx context.Context, owner *schema.Resource, ent Entity, prop *schema.Property, sub []string) (any, error) {
	switch prop.Kind {
	case schema.KindManyToOne:
		return e.resolveManyToOne(ctx, ent, prop.Relation, sub)
	case schema.KindOneToMany:
		return e.resolveOneToMany(ctx, owner, ent, prop.Relation, sub)
	case schema.KindManyToMany:
		return e.resolveManyToMany(ctx, owner, ent, prop.Relation, sub)
	default:
		return nil, nil
	}
}

// resolveManyToOne reads the single target row this entity's foreign key
// points at. A null foreign key or a dangling reference resolves to nil.
func (e *Engine) resolveManyToOne(ctx context.Context, ent Entity, rel *schema.Relation, sub []string) (any, error) {
	target, err := e.registry.Lookup(rel.Target)
	if err != nil {
		return nil, err
	}

	fk := ent[rel.TargetName]
	if fk == nil {
		return nil, nil
	}

	rows, err := e.store.Read(ctx, target.Table, target.Columns(),
		[]storage.Filter{storage.Eq(target.PrimaryKey().Column, fk)}, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	related := hydrate(target, rows[0])
	if err := e.resolveRelations(ctx, target, []Entity{related}, sub); err != nil {
		return nil, err
	}
	return related, nil
}

// resolveOneToMany reads the target rows whose foreign key references this
// entity. The attached list is empty, not nil, when there are none.
func (e *Engine) resolveOneToMany(ctx context.Context, owner *schema.Resource, ent Entity, rel *schema.Relation, sub []string) (any, error) {
	target, err := e.registry.Lookup(rel.Target)
	if err != nil {
		return nil, err
	}
	fkProp, ok := target.Property(rel.TargetName)
	if !ok {
		return nil, &UnknownPropertyError{Entity: target.Name, Property: rel.TargetName}
	}

	key := ent[owner.PrimaryKey().Name]
	rows, err := e.store.Read(ctx, target.Table, target.Columns(),
		[]storage.Filter{storage.Eq(fkProp.Column, key)}, 0)
	if err != nil {
		return nil, err
	}

	children := make([]Entity, 0, len(rows))
	for _, row := range rows {
		children = append(children, hydrate(target, row))
	}
	if err := e.resolveRelations(ctx, target, children, sub); err != nil {
		return nil, err
	}
	return children, nil
}

// resolveManyToMany reads this entity's junction links and then each linked
// target row in a parallel fan-out. Links whose target row is gone are
// skipped.
func (e *Engine) resolveManyToMany(ctx context.Context, owner *schema.Resource, ent Entity, rel *schema.Relation, sub []string) (any, error) {
	target, err := e.registry.Lookup(rel.Target)
	if err != nil {
		return nil, err
	}

	key := ent[owner.PrimaryKey().Name]
	links, err := e.store.Read(ctx, rel.JunctionTable, []string{rel.OtherColumn},
		[]storage.Filter{storage.Eq(rel.OwnColumn, key)}, 0)
	if err != nil {
		return nil, err
	}

	loaded := make([]Entity, len(links))
	g, gctx := errgroup.WithContext(ctx)
	for i, link := range links {
		i := i
		id := link[rel.OtherColumn]
		g.Go(func() error {
			rows, err := e.store.Read(gctx, target.Table, target.Columns(),
				[]storage.Filter{storage.Eq(target.PrimaryKey().Column, id)}, 1)
			if err != nil {
				return err
			}
			if len(rows) > 0 {
				loaded[i] = hydrate(target, rows[0])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	related := make([]Entity, 0, len(loaded))
	for _, ent := range loaded {
		if ent != nil {
			related = append(related, ent)
		}
	}
	if err := e.resolveRelations(ctx, target, related, sub); err != nil {
		return nil, err
	}
	return related, nil
}
