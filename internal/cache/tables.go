package cache

import (
	"context"

	"github.com/atelierhq/atelier/internal/api"
	"github.com/atelierhq/atelier/internal/logger"
)

// Upstream is the backend surface the table cache fronts.
type Upstream interface {
	ListWorkspaceTables(ctx context.Context) ([]api.Table, error)
	GetTableSchema(ctx context.Context, tableID string) (api.TableSchema, error)
	GetTableRecords(ctx context.Context, tableID string) ([]api.Record, error)
}

// TableSource serves table metadata and rows from the cache when warm,
// falling back to the backend and filling the cache on a miss. It plugs
// straight into the database-item binder.
type TableSource struct {
	upstream Upstream
	cache    *Cache
}

// NewTableSource wraps upstream with the cache. A nil cache passes every
// call straight through.
func NewTableSource(upstream Upstream, cache *Cache) *TableSource {
	return &TableSource{upstream: upstream, cache: cache}
}

func (s *TableSource) ListWorkspaceTables(ctx context.Context) ([]api.Table, error) {
	var tables []api.Table
	if s.hit(ctx, keyWorkspaceTables(), &tables) {
		return tables, nil
	}
	tables, err := s.upstream.ListWorkspaceTables(ctx)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, keyWorkspaceTables(), tables)
	return tables, nil
}

func (s *TableSource) GetTableSchema(ctx context.Context, tableID string) (api.TableSchema, error) {
	var schema api.TableSchema
	if s.hit(ctx, keyTableSchema(tableID), &schema) {
		return schema, nil
	}
	schema, err := s.upstream.GetTableSchema(ctx, tableID)
	if err != nil {
		return api.TableSchema{}, err
	}
	s.fill(ctx, keyTableSchema(tableID), schema)
	return schema, nil
}

func (s *TableSource) GetTableRecords(ctx context.Context, tableID string) ([]api.Record, error) {
	var records []api.Record
	if s.hit(ctx, keyTableRecords(tableID), &records) {
		return records, nil
	}
	records, err := s.upstream.GetTableRecords(ctx, tableID)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, keyTableRecords(tableID), records)
	return records, nil
}

// hit reads key into out, swallowing cache errors: a broken cache should
// degrade to backend fetches, never block them.
func (s *TableSource) hit(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(ctx, key, out)
	if err != nil {
		logger.Warn("cache: read %s failed: %v", key, err)
		return false
	}
	return ok
}

func (s *TableSource) fill(ctx context.Context, key string, val any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, key, val); err != nil {
		logger.Warn("cache: fill %s failed: %v", key, err)
	}
}
