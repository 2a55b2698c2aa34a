package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/model"
)

// Cache stores quotes by stock code. Freshness is judged by the oracle
// from Quote.UpdatedAt; ttl only bounds how long an entry is retained.
type Cache interface {
	Get(ctx context.Context, code string) (model.Quote, bool, error)
	Set(ctx context.Context, code string, q model.Quote, ttl time.Duration) error
	Delete(ctx context.Context, codes ...string) error
}

type memoryEntry struct {
	quote   model.Quote
	expires time.Time
}

// MemoryCache is an in-process quote cache shared by all requests.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	clock   Clock
}

// NewMemoryCache creates an empty cache. A nil clock uses the wall clock.
func NewMemoryCache(clock Clock) *MemoryCache {
	if clock == nil {
		clock = SystemClock{}
	}
	return &MemoryCache{entries: make(map[string]memoryEntry), clock: clock}
}

// Get returns the cached quote for code unless it has expired.
func (c *MemoryCache) Get(_ context.Context, code string) (model.Quote, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[code]
	c.mu.RUnlock()
	if !ok {
		return model.Quote{}, false, nil
	}
	if !c.clock.Now().Before(e.expires) {
		c.mu.Lock()
		if cur, still := c.entries[code]; still && cur.expires.Equal(e.expires) {
			delete(c.entries, code)
		}
		c.mu.Unlock()
		return model.Quote{}, false, nil
	}
	return e.quote, true, nil
}

// Set stores q for ttl.
func (c *MemoryCache) Set(_ context.Context, code string, q model.Quote, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[code] = memoryEntry{quote: q, expires: c.clock.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Delete evicts codes.
func (c *MemoryCache) Delete(_ context.Context, codes ...string) error {
	c.mu.Lock()
	for _, code := range codes {
		delete(c.entries, code)
	}
	c.mu.Unlock()
	return nil
}

// Len reports the number of retained entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

const redisKeyPrefix = "quote:"

// RedisCache shares quotes across service instances through Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get reads a quote; a missing key is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, code string) (model.Quote, bool, error) {
	b, err := c.client.Get(ctx, redisKeyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Quote{}, false, nil
	}
	if err != nil {
		return model.Quote{}, false, fmt.Errorf("failed to read cached quote: %w", err)
	}
	var q model.Quote
	if err := json.Unmarshal(b, &q); err != nil {
		return model.Quote{}, false, fmt.Errorf("failed to decode cached quote: %w", err)
	}
	return q, true, nil
}

// Set writes a quote with ttl as the key expiry.
func (c *RedisCache) Set(ctx context.Context, code string, q model.Quote, ttl time.Duration) error {
	b, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to encode quote: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+code, b, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache quote: %w", err)
	}
	return nil
}

// Delete evicts codes.
func (c *RedisCache) Delete(ctx context.Context, codes ...string) error {
	if len(codes) == 0 {
		return nil
	}
	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = redisKeyPrefix + code
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to evict quotes: %w", err)
	}
	return nil
}

// TieredCache reads the near (in-process) tier first and falls back to
// the far (shared) tier. Writes and deletes go to both.
type TieredCache struct {
	near Cache
	far  Cache
	// nearTTL bounds how long a quote read from the far tier is kept locally.
	nearTTL time.Duration
}

// NewTieredCache layers near over far.
func NewTieredCache(near, far Cache, nearTTL time.Duration) *TieredCache {
	return &TieredCache{near: near, far: far, nearTTL: nearTTL}
}

// Get checks near then far; a far hit is copied into near.
func (c *TieredCache) Get(ctx context.Context, code string) (model.Quote, bool, error) {
	if q, ok, err := c.near.Get(ctx, code); err == nil && ok {
		return q, true, nil
	}
	q, ok, err := c.far.Get(ctx, code)
	if err != nil || !ok {
		return model.Quote{}, false, err
	}
	_ = c.near.Set(ctx, code, q, c.nearTTL)
	return q, true, nil
}

// Set writes both tiers. The near tier is written even if the far one fails.
func (c *TieredCache) Set(ctx context.Context, code string, q model.Quote, ttl time.Duration) error {
	nearTTL := min(ttl, c.nearTTL)
	if err := c.near.Set(ctx, code, q, nearTTL); err != nil {
		return err
	}
	return c.far.Set(ctx, code, q, ttl)
}

// Delete evicts codes from both tiers.
func (c *TieredCache) Delete(ctx context.Context, codes ...string) error {
	return errors.Join(c.near.Delete(ctx, codes...), c.far.Delete(ctx, codes...))
}
