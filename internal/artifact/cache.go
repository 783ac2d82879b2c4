// File path: internal/artifact/cache.go
package artifact

import (
	"context"
	"errors"
	"fmt"

	"github.com/raglinehq/ragline/internal/common"
)

// Cache fronts a primary backend with an optional fallback. The usual
// deployment uses minio as primary and the local filesystem as fallback;
// without object store credentials the filesystem runs alone.
type Cache struct {
	primary  Backend
	fallback Backend
}

func NewCache(primary, fallback Backend) *Cache {
	if primary == nil {
		primary = fallback
		fallback = nil
	}
	return &Cache{primary: primary, fallback: fallback}
}

// OpenFromEnv wires the backend pair from environment configuration. A
// configured but unreachable object store degrades to filesystem-only
// operation with a warning rather than failing startup.
func OpenFromEnv(ctx context.Context, fsRoot string) (*Cache, error) {
	local, err := NewFSBackend(fsRoot)
	if err != nil {
		return nil, err
	}
	cfg := LoadMinioConfig()
	if !cfg.Enabled() {
		common.Logger().Info("artifact: object store not configured, using filesystem", "root", fsRoot)
		return NewCache(local, nil), nil
	}
	remote, err := NewMinioBackend(ctx, cfg)
	if err != nil {
		common.Logger().Warn("artifact: object store unavailable, using filesystem", "error", err)
		return NewCache(local, nil), nil
	}
	return NewCache(remote, local), nil
}

// GetOrParse returns the stored artifact for the raw bytes, invoking parse
// only when no backend has one. The boolean reports a cache hit. Parse
// errors surface unchanged and nothing is stored for them.
func (c *Cache) GetOrParse(ctx context.Context, raw []byte, parse func(ctx context.Context, contentHash string) (*Record, error)) (*Record, bool, error) {
	contentHash := HashContent(raw)
	if record, err := c.lookup(ctx, contentHash); err == nil {
		return record, true, nil
	}
	record, err := parse(ctx, contentHash)
	if err != nil {
		return nil, false, err
	}
	if record.ContentHash == "" {
		record.ContentHash = contentHash
	}
	c.store(ctx, record)
	return record, false, nil
}

// Get fetches an artifact by hash without the parse path.
func (c *Cache) Get(ctx context.Context, contentHash string) (*Record, error) {
	return c.lookup(ctx, contentHash)
}

func (c *Cache) lookup(ctx context.Context, contentHash string) (*Record, error) {
	record, err := c.primary.Get(ctx, contentHash)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, ErrNotFound) {
		common.Logger().Warn("artifact: primary backend lookup failed", "backend", c.primary.Name(), "error", err)
	}
	if c.fallback == nil {
		return nil, err
	}
	record, fallbackErr := c.fallback.Get(ctx, contentHash)
	if fallbackErr != nil {
		return nil, fmt.Errorf("artifact lookup: %w", fallbackErr)
	}
	return record, nil
}

// store writes to every backend; failures are logged because artifacts can
// always be regenerated from the original bytes.
func (c *Cache) store(ctx context.Context, record *Record) {
	if err := c.primary.Put(ctx, record); err != nil {
		common.Logger().Warn("artifact: primary backend store failed", "backend", c.primary.Name(), "error", err)
	}
	if c.fallback != nil {
		if err := c.fallback.Put(ctx, record); err != nil {
			common.Logger().Warn("artifact: fallback backend store failed", "backend", c.fallback.Name(), "error", err)
		}
	}
}
