package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache caches computed statistics in Redis under a shared key prefix so any
// ledger mutation can drop the whole read-side in one pass. Every method is
// best-effort: a Redis outage degrades reads to direct computation and never
// fails the request.
type Cache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewCache creates a statistics cache. A zero ttl falls back to one minute.
func NewCache(client redis.UniversalClient, prefix string, ttl time.Duration) *Cache {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "ledger:stats"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{client: client, prefix: trimmedPrefix, ttl: ttl}
}

func (c *Cache) key(parts ...string) string {
	return c.prefix + ":" + strings.Join(parts, ":")
}

// Get returns a cached aggregate for the key parts, or false on miss.
func (c *Cache) Get(ctx context.Context, parts ...string) (*Statistics, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, c.key(parts...)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("level=warn component=stats_cache msg=\"cache read failed\" err=%v", err)
		}
		return nil, false
	}
	var cached Statistics
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false
	}
	return &cached, true
}

// Set stores an aggregate under the key parts with the configured TTL.
func (c *Cache) Set(ctx context.Context, value *Statistics, parts ...string) {
	if c == nil || c.client == nil || value == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(parts...), raw, c.ttl).Err(); err != nil {
		log.Printf("level=warn component=stats_cache msg=\"cache write failed\" err=%v", err)
	}
}

// Invalidate drops every cached aggregate under the prefix. Called after any
// ledger mutation commits.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	pattern := fmt.Sprintf("%s:*", c.prefix)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("level=warn component=stats_cache msg=\"cache scan failed\" err=%v", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("level=warn component=stats_cache msg=\"cache invalidate failed\" err=%v", err)
	}
}
