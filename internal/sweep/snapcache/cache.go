// Package snapcache is an optional Redis cache of loaded sweep datasets.
// A restart, or a second explorer instance pointing at the same sweep,
// reads the marshalled snapshot instead of re-querying Postgres.
package snapcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/plateau/internal/sweep"
)

const keyPrefix = "plateau:sweep:"

// Cache wraps a Redis client for dataset snapshots.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(addr string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// Close releases the client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Get returns the cached dataset for a source key, or (nil, false) on a
// miss. Corrupt snapshots count as misses; the caller reloads and Put
// overwrites them.
func (c *Cache) Get(ctx context.Context, source string) (*sweep.Dataset, bool) {
	data, err := c.client.Get(ctx, keyPrefix+source).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("source", source).Msg("snapshot cache read failed")
		}
		return nil, false
	}

	var ds sweep.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		log.Warn().Err(err).Str("source", source).Msg("snapshot cache entry corrupt, ignoring")
		return nil, false
	}
	return &ds, true
}

// Put stores a dataset snapshot with the configured TTL. Failures are
// logged and swallowed: the cache is an optimization, never a dependency.
func (c *Cache) Put(ctx context.Context, source string, ds *sweep.Dataset) {
	data, err := json.Marshal(ds)
	if err != nil {
		log.Warn().Err(err).Str("source", source).Msg("snapshot marshal failed")
		return
	}
	if err := c.client.Set(ctx, keyPrefix+source, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("source", source).Msg("snapshot cache write failed")
	}
}
