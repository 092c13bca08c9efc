package source

import (
	"context"

	"github.com/roach88/hacksync/internal/codec"
	"github.com/roach88/hacksync/internal/kv"
	"github.com/roach88/hacksync/internal/model"
)

// Cache is the snapshot slot of the local durable cache.
type Cache struct {
	kv *kv.Cache
}

// NewCache wraps c. The cache is always configured.
func NewCache(c *kv.Cache) *Cache {
	return &Cache{kv: c}
}

func (c *Cache) Name() string { return "cache" }

func (c *Cache) Available() bool { return c != nil && c.kv != nil }

// Load adopts the cached export if it parses as a snapshot.
func (c *Cache) Load(ctx context.Context) (*model.Snapshot, error) {
	data, ok, err := c.kv.Snapshot(ctx)
	if err != nil {
		return nil, Unavailable(c.Name(), "read slot", err)
	}
	if !ok {
		return nil, nil
	}
	snap, err := codec.Decode(data)
	if err != nil {
		return nil, Unavailable(c.Name(), "decode slot", err)
	}
	return &snap, nil
}

// Save replaces the cached export.
func (c *Cache) Save(ctx context.Context, snap model.Snapshot) error {
	data, err := codec.Encode(snap)
	if err != nil {
		return WriteFailed(c.Name(), "encode snapshot", err)
	}
	if err := c.kv.SaveSnapshot(ctx, data); err != nil {
		return WriteFailed(c.Name(), "write slot", err)
	}
	return nil
}
