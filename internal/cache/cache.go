package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/tripmate/internal/storage"
)

const defaultTTL = time.Hour

// Cache wraps a Redis client and caches shared trips by share id.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache with a 1-hour TTL.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client, ttl: defaultTTL}
}

// key returns the Redis key for the given share id.
func key(shareID string) string {
	return "trip:" + strings.ToLower(strings.TrimSpace(shareID))
}

// Get retrieves a shared trip from cache.
// Returns nil, nil on a cache miss (not an error).
func (c *Cache) Get(ctx context.Context, shareID string) (*storage.SavedTrip, error) {
	val, err := c.client.Get(ctx, key(shareID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for share id %s: %w", shareID, err)
	}

	var st storage.SavedTrip
	if err := json.Unmarshal(val, &st); err != nil {
		return nil, fmt.Errorf("unmarshaling cached trip %s: %w", shareID, err)
	}
	return &st, nil
}

// Set stores a shared trip under its share id with the configured TTL.
func (c *Cache) Set(ctx context.Context, st *storage.SavedTrip) error {
	if st == nil {
		return nil
	}

	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshaling trip %s: %w", st.ShareID, err)
	}

	if err := c.client.Set(ctx, key(st.ShareID), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for share id %s: %w", st.ShareID, err)
	}
	return nil
}

// Delete removes the cached entry for the given share id.
func (c *Cache) Delete(ctx context.Context, shareID string) error {
	if err := c.client.Del(ctx, key(shareID)).Err(); err != nil {
		return fmt.Errorf("cache delete for share id %s: %w", shareID, err)
	}
	return nil
}
