package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cascade-orm/cascade/schema"
	"github.com/cascade-orm/cascade/storage"
)

// writeMode selects how the root entity of a save pipeline is persisted.
// Cascaded children are always saved in modeSave.
type writeMode int

const (
	modeCreate writeMode = iota
	modeUpdate
	modeSave
)

// Create persists a new entity and returns its storage-assigned primary key.
// A caller-supplied key matching an existing row fails with DuplicateKey;
// otherwise the supplied key is discarded and storage assigns one. The
// assigned key is also written back into the entity.
func (e *Engine) Create(ctx context.Context, entityType string, ent Entity) (any, error) {
	key, err := e.save(ctx, entityType, ent, modeCreate, 0)
	if err != nil {
		return nil, err
	}
	e.log.Debug("create", zap.String("entity", entityType), zap.Any("key", key))
	return key, nil
}

// Update persists an existing entity's scalar properties. A missing or
// absent primary key fails with NotFound.
func (e *Engine) Update(ctx context.Context, entityType string, ent Entity) (any, error) {
	key, err := e.save(ctx, entityType, ent, modeUpdate, 0)
	if err != nil {
		return nil, err
	}
	e.log.Debug("update", zap.String("entity", entityType), zap.Any("key", key))
	return key, nil
}

// Save creates or updates depending on whether the entity's primary key
// already exists. Saving with a key no row has yet is the one path that
// persists a caller-chosen key on first insertion.
func (e *Engine) Save(ctx context.Context, entityType string, ent Entity) (any, error) {
	key, err := e.save(ctx, entityType, ent, modeSave, 0)
	if err != nil {
		return nil, err
	}
	e.log.Debug("save", zap.String("entity", entityType), zap.Any("key", key))
	return key, nil
}

// save runs the two-pass write pipeline: cascading many-to-one targets
// first so their keys exist to be referenced, then this entity's own
// columns, then the children and junction links that reference this
// entity's now-known key.
func (e *Engine) save(ctx context.Context, entityType string, ent Entity, mode writeMode, depth int) (any, error) {
	if ent == nil {
		return nil, fmt.Errorf("%s: nil entity", entityType)
	}
	if depth > maxCascadeDepth {
		return nil, fmt.Errorf("%s: %w", entityType, ErrCascadeDepth)
	}
	res, err := e.registry.Lookup(entityType)
	if err != nil {
		return nil, err
	}
	if err := validateRelationValues(res, ent); err != nil {
		return nil, err
	}

	if err := e.saveManyToOne(ctx, res, ent, depth); err != nil {
		return nil, err
	}

	key, err := e.persistOwn(ctx, res, ent, mode)
	if err != nil {
		return nil, err
	}
	ent[res.PrimaryKey().Name] = key

	if err := e.saveOneToMany(ctx, res, ent, key, depth); err != nil {
		return nil, err
	}
	if err := e.saveManyToMany(ctx, res, ent, key, depth); err != nil {
		return nil, err
	}

	return key, nil
}

// saveManyToOne saves each cascading many-to-one nested entity and copies
// its resulting key into this entity's foreign key property. Runs before
// this entity persists so the keys it references exist. Sequential: every
// iteration writes into the same parent map.
func (e *Engine) saveManyToOne(ctx context.Context, res *schema.Resource, ent Entity, depth int) error {
	for _, p := range res.Relations() {
		rel := p.Relation
		if rel.Kind != schema.ManyToOne || !rel.CascadeOnSave {
			continue
		}
		raw, ok := ent[p.Name]
		if !ok || raw == nil {
			continue
		}
		child, ok := asEntity(raw)
		if !ok {
			return fmt.Errorf("%s.%s: expected an entity value, got %T", res.Name, p.Name, raw)
		}

		key, err := e.save(ctx, rel.Target, child, modeSave, depth+1)
		if err != nil {
			return err
		}
		ent[rel.TargetName] = key
	}
	return nil
}

// persistOwn writes this entity's scalar and key columns according to mode
// and returns the row's primary key
func (e *Engine) persistOwn(ctx context.Context, res *schema.Resource, ent Entity, mode writeMode) (any, error) {
	pk := res.PrimaryKey()
	key := ent[pk.Name]
	absent := keyAbsent(pk, key)

	switch mode {
	case modeCreate:
		if !absent {
			taken, err := e.keyExists(ctx, res, key)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, &DuplicateKeyError{Entity: res.Name, Key: key}
			}
		}
		// The supplied key is discarded either way; storage assigns
		return e.insert(ctx, res, ent, false)

	case modeUpdate:
		if absent {
			return nil, &NotFoundError{Entity: res.Name, Key: key}
		}
		exists, err := e.keyExists(ctx, res, key)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, &NotFoundError{Entity: res.Name, Key: key}
		}
		return e.update(ctx, res, ent)

	default: // modeSave
		if absent {
			return e.insert(ctx, res, ent, false)
		}
		exists, err := e.keyExists(ctx, res, key)
		if err != nil {
			return nil, err
		}
		if exists {
			return e.update(ctx, res, ent)
		}
		return e.insert(ctx, res, ent, true)
	}
}

// keyExists reports whether a row with the given primary key exists
func (e *Engine) keyExists(ctx context.Context, res *schema.Resource, key any) (bool, error) {
	n, err := e.store.Count(ctx, res.Table, []storage.Filter{storage.Eq(res.PrimaryKey().Column, key)})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// insert creates this entity's row. With keepKey the caller's key column is
// written as supplied; otherwise the key column is left out and the store
// assigns one.
func (e *Engine) insert(ctx context.Context, res *schema.Resource, ent Entity, keepKey bool) (any, error) {
	rec, columns := recordOf(res, ent, keepKey)
	return e.store.Create(ctx, res.Table, res.PrimaryKey().Column, columns, rec)
}

// update sets this entity's present scalar columns on its row
func (e *Engine) update(ctx context.Context, res *schema.Resource, ent Entity) (any, error) {
	pk := res.PrimaryKey()
	rec, columns := recordOf(res, ent, false)
	if len(columns) == 0 {
		// Nothing scalar to persist
		return ent[pk.Name], nil
	}
	rec[pk.Column] = ent[pk.Name]
	return e.store.Update(ctx, res.Table, pk.Column, columns, rec)
}

// recordOf projects the entity's scalar values into a column record. Only
// properties present in the entity are included, so updates touch just the
// columns the caller supplied.
func recordOf(res *schema.Resource, ent Entity, includeKey bool) (storage.Record, []string) {
	rec := make(storage.Record)
	var columns []string

	if includeKey {
		pk := res.PrimaryKey()
		if v, ok := ent[pk.Name]; ok {
			rec[pk.Column] = v
			columns = append(columns, pk.Column)
		}
	}
	for _, p := range res.Simple() {
		if v, ok := ent[p.Name]; ok {
			rec[p.Column] = v
			columns = append(columns, p.Column)
		}
	}
	return rec, columns
}

// saveOneToMany stamps each cascading child with this entity's key and
// saves the children in a parallel fan-out. The first failure cancels the
// in-flight siblings.
func (e *Engine) saveOneToMany(ctx context.Context, res *schema.Resource, ent Entity, key any, depth int) error {
	for _, p := range res.Relations() {
		rel := p.Relation
		if rel.Kind != schema.OneToMany || !rel.CascadeOnSave {
			continue
		}
		raw, ok := ent[p.Name]
		if !ok || raw == nil {
			continue
		}
		children, ok := asEntities(raw)
		if !ok {
			return fmt.Errorf("%s.%s: expected an entity list, got %T", res.Name, p.Name, raw)
		}

		target, err := e.registry.Lookup(rel.Target)
		if err != nil {
			return err
		}
		fkProp, ok := target.Property(rel.TargetName)
		if !ok {
			return &UnknownPropertyError{Entity: target.Name, Property: rel.TargetName}
		}

		// Stamp before the fan-out: the parent key wins over whatever the
		// child carried, but replacing a different live value is worth a
		// warning rather than silence.
		for _, child := range children {
			if child == nil {
				return fmt.Errorf("%s.%s: nil entity in list", res.Name, p.Name)
			}
			prior := child[rel.TargetName]
			if !keyAbsent(fkProp, prior) && !keysEqual(prior, key) {
				e.log.Warn("replacing child foreign key on cascading save",
					zap.String("entity", rel.Target),
					zap.String("property", rel.TargetName),
					zap.Any("old", prior),
					zap.Any("new", key))
			}
			child[rel.TargetName] = key
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, child := range children {
			child := child
			g.Go(func() error {
				_, err := e.save(gctx, rel.Target, child, modeSave, depth+1)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// saveManyToMany saves each cascading related entity and ensures exactly one
// junction row links it to this entity
func (e *Engine) saveManyToMany(ctx context.Context, res *schema.Resource, ent Entity, key any, depth int) error {
	for _, p := range res.Relations() {
		rel := p.Relation
		if rel.Kind != schema.ManyToMany || !rel.CascadeOnSave {
			continue
		}
		raw, ok := ent[p.Name]
		if !ok || raw == nil {
			continue
		}
		entries, ok := asEntities(raw)
		if !ok {
			return fmt.Errorf("%s.%s: expected an entity list, got %T", res.Name, p.Name, raw)
		}
		for _, entry := range entries {
			if entry == nil {
				return fmt.Errorf("%s.%s: nil entity in list", res.Name, p.Name)
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, entry := range entries {
			entry := entry
			g.Go(func() error {
				entryKey, err := e.save(gctx, rel.Target, entry, modeSave, depth+1)
				if err != nil {
					return err
				}
				return e.linkJunction(gctx, rel, key, entryKey)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// linkJunction inserts the junction row for the key pair unless one already
// exists. Check then insert, no upsert: repeated saves keep exactly one row
// per pair.
func (e *Engine) linkJunction(ctx context.Context, rel *schema.Relation, ownKey, otherKey any) error {
	filters := []storage.Filter{
		storage.Eq(rel.OwnColumn, ownKey),
		storage.Eq(rel.OtherColumn, otherKey),
	}
	n, err := e.store.Count(ctx, rel.JunctionTable, filters)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	rec := storage.Record{rel.OwnColumn: ownKey, rel.OtherColumn: otherKey}
	_, err = e.store.Create(ctx, rel.JunctionTable, "", []string{rel.OwnColumn, rel.OtherColumn}, rec)
	return err
}
