package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atelierhq/atelier/internal/api"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(context.Background(), t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_PutGetInvalidate(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	type entry struct {
		Name string `json:"name"`
	}

	var got entry
	ok, err := c.Get(ctx, "missing", &got)
	if err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := c.Put(ctx, "tables.workspace", entry{Name: "Services"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	ok, err = c.Get(ctx, "tables.workspace", &got)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Name != "Services" {
		t.Errorf("round trip lost data: %+v", got)
	}

	if err := c.Invalidate(ctx, "tables.workspace"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	ok, _ = c.Get(ctx, "tables.workspace", &got)
	if ok {
		t.Error("invalidated key should miss")
	}

	if err := c.Invalidate(ctx, "never-existed"); err != nil {
		t.Errorf("invalidating a missing key should be a no-op: %v", err)
	}
}

func TestCache_InvalidateDeliverables(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	key := DeliverableListKey("proj-1")
	if err := c.Put(ctx, key, []string{"del-1"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := c.InvalidateDeliverables(ctx, "proj-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	var out []string
	if ok, _ := c.Get(ctx, key, &out); ok {
		t.Error("deliverable list should be gone after submit invalidation")
	}
}

type countingUpstream struct {
	lists, schemas, records int
	fail                    bool
}

func (u *countingUpstream) ListWorkspaceTables(ctx context.Context) ([]api.Table, error) {
	u.lists++
	if u.fail {
		return nil, errors.New("backend down")
	}
	return []api.Table{{ID: "tbl-1", Name: "Services"}}, nil
}

func (u *countingUpstream) GetTableSchema(ctx context.Context, id string) (api.TableSchema, error) {
	u.schemas++
	return api.TableSchema{ID: id, Columns: []api.Column{{ID: "c1", Name: "Title"}}}, nil
}

func (u *countingUpstream) GetTableRecords(ctx context.Context, id string) ([]api.Record, error) {
	u.records++
	return []api.Record{{ID: "row-1", Values: map[string]any{"c1": "Logo design"}}}, nil
}

func TestTableSource_ServesRepeatLoadsFromCache(t *testing.T) {
	c := openTestCache(t)
	up := &countingUpstream{}
	src := NewTableSource(up, c)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tables, err := src.ListWorkspaceTables(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(tables) != 1 || tables[0].ID != "tbl-1" {
			t.Fatalf("unexpected tables: %v", tables)
		}
	}
	if up.lists != 1 {
		t.Errorf("expected one backend list call, got %d", up.lists)
	}

	for i := 0; i < 2; i++ {
		if _, err := src.GetTableSchema(ctx, "tbl-1"); err != nil {
			t.Fatalf("schema: %v", err)
		}
		if _, err := src.GetTableRecords(ctx, "tbl-1"); err != nil {
			t.Fatalf("records: %v", err)
		}
	}
	if up.schemas != 1 || up.records != 1 {
		t.Errorf("expected single backend schema/record calls, got %d/%d", up.schemas, up.records)
	}
}

func TestTableSource_NilCachePassesThrough(t *testing.T) {
	up := &countingUpstream{}
	src := NewTableSource(up, nil)
	ctx := context.Background()

	src.ListWorkspaceTables(ctx)
	src.ListWorkspaceTables(ctx)
	if up.lists != 2 {
		t.Errorf("nil cache should hit the backend every time, got %d calls", up.lists)
	}
}

func TestTableSource_BackendErrorSurfaces(t *testing.T) {
	up := &countingUpstream{fail: true}
	src := NewTableSource(up, openTestCache(t))
	if _, err := src.ListWorkspaceTables(context.Background()); err == nil {
		t.Fatal("backend failure should surface on a cold cache")
	}
}
