// Package cache is a local key-value cache over an embedded NATS JetStream
// server. It holds workspace table schemas/records and per-project
// deliverable lists so repeat picker opens and list views skip the backend.
// Entries expire by bucket TTL; a successful submit invalidates the owning
// project's deliverable list.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/atelierhq/atelier/internal/logger"
)

const bucketName = "atelier_cache"

// Cache is the process-wide cache handle. Safe for use from the single
// Bubble Tea loop plus its tea.Cmd goroutines; the KV store serializes
// writes internally.
type Cache struct {
	ns *server.Server
	nc *nats.Conn
	kv jetstream.KeyValue
}

// Open starts the embedded server under dataDir and binds the cache
// bucket with the given entry TTL.
func Open(ctx context.Context, dataDir string, ttl time.Duration) (*Cache, error) {
	ns, err := startEmbedded(dataDir)
	if err != nil {
		return nil, err
	}
	js, nc, err := connectInProcess(ns)
	if err != nil {
		shutdown(nil, ns)
		return nil, err
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  bucketName,
		Storage: jetstream.FileStorage,
		TTL:     ttl,
	})
	if err != nil {
		shutdown(nc, ns)
		return nil, fmt.Errorf("bind cache bucket: %w", err)
	}
	return &Cache{ns: ns, nc: nc, kv: kv}, nil
}

// Close stops the embedded server.
func (c *Cache) Close() error {
	return shutdown(c.nc, c.ns)
}

// Get reads a key into out. The second return is false on a miss.
func (c *Cache) Get(ctx context.Context, key string, out any) (bool, error) {
	entry, err := c.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(entry.Value(), out); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		logger.Warn("cache: dropping undecodable entry %s: %v", key, err)
		_ = c.kv.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

// Put stores val under key as JSON.
func (c *Cache) Put(ctx context.Context, key string, val any) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if _, err := c.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("cache put %s: %w", key, err)
	}
	return nil
}

// Invalidate removes a key. Missing keys are not an error.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("cache invalidate %s: %w", key, err)
	}
	return nil
}

// Cache key layout. Table keys are per-table; deliverable lists are
// per-project.
func keyWorkspaceTables() string            { return "tables.workspace" }
func keyTableSchema(tableID string) string  { return "table." + tableID + ".schema" }
func keyTableRecords(tableID string) string { return "table." + tableID + ".records" }

// DeliverableListKey is the cache key of one project's deliverable list.
func DeliverableListKey(project string) string { return "deliverables." + project }

// InvalidateDeliverables drops the cached deliverable list of a project.
// Called after every successful create/update submit.
func (c *Cache) InvalidateDeliverables(ctx context.Context, project string) error {
	logger.Debug("cache: invalidating deliverable list for project %s", project)
	return c.Invalidate(ctx, DeliverableListKey(project))
}
