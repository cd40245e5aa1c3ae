// Package engine implements the cascading CRUD engine. It resolves entity
// types through a schema registry, translates property-level operations into
// table-level calls on a storage port, eagerly loads relations selected by
// dotted foreign-key paths, and recursively persists or deletes related
// entities according to each relation's cascade flags.
package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/cascade-orm/cascade/schema"
	"github.com/cascade-orm/cascade/storage"
)

// maxCascadeDepth bounds recursive saves. Object graphs handed to save can
// be cyclic; reaching the bound fails with ErrCascadeDepth.
const maxCascadeDepth = 10

// Engine maps entity operations onto a storage port using the resources of
// a schema registry. An Engine is safe for concurrent use.
type Engine struct {
	registry *schema.Registry
	store    storage.Store
	log      *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine's logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// New creates an engine over the given registry and store
func New(registry *schema.Registry, store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		store:    store,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ReadOptions controls a Read: property filters, dotted relation paths to
// resolve, and an optional row limit (<= 0 means no limit).
type ReadOptions struct {
	Filters []Filter
	Paths   []string
	Limit   int
}

// Count returns the number of rows of the entity type matching all filters
func (e *Engine) Count(ctx context.Context, entityType string, filters ...Filter) (int64, error) {
	res, err := e.registry.Lookup(entityType)
	if err != nil {
		return 0, err
	}
	cfs, err := columnFilters(res, filters)
	if err != nil {
		return 0, err
	}

	n, err := e.store.Count(ctx, res.Table, cfs)
	if err != nil {
		return 0, err
	}
	e.log.Debug("count", zap.String("entity", entityType), zap.Int64("rows", n))
	return n, nil
}
