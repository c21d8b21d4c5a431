package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache holds JSON variant views in Redis. A nil client or non-positive ttl
// yields a cache that never stores anything.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a variant cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func variantKey(id uuid.UUID) string {
	return "catalog:variant:" + id.String()
}

func (c *Cache) off() bool {
	return c == nil || c.client == nil || c.ttl <= 0
}

// Get returns the cached view of id and whether it was present.
func (c *Cache) Get(ctx context.Context, id uuid.UUID) (VariantView, bool, error) {
	var view VariantView
	if c.off() {
		return view, false, nil
	}
	data, err := c.client.Get(ctx, variantKey(id)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return view, false, nil
	case err != nil:
		return view, false, err
	}
	if err := json.Unmarshal(data, &view); err != nil {
		return view, false, err
	}
	return view, true, nil
}

// Put stores view under its id.
func (c *Cache) Put(ctx context.Context, view VariantView) error {
	if c.off() {
		return nil
	}
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, variantKey(view.ID), data, c.ttl).Err()
}

// Drop removes the cached views of ids.
func (c *Cache) Drop(ctx context.Context, ids ...uuid.UUID) error {
	if c.off() || len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = variantKey(id)
	}
	return c.client.Del(ctx, keys...).Err()
}
