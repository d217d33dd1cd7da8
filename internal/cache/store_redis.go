package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/designsnack/leadharvest/internal/leads"
)

const (
	redisKeyPrefix = "leadharvest:contacts:"
	redisIndexKey  = "leadharvest:contacts:index"
)

// RedisStore persists cache entries as JSON values with a Redis list as the
// recency index. TTL checks stay in the cache layer so entries behave
// identically across backends.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client (used in tests).
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the entry stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) (leads.CacheEntry, bool, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return leads.CacheEntry{}, false, nil
	}
	if err != nil {
		return leads.CacheEntry{}, false, fmt.Errorf("redis get: %w", err)
	}
	var entry leads.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return leads.CacheEntry{}, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return entry, true, nil
}

// Put stores the entry and pushes its key to the front of the index list.
func (s *RedisStore) Put(ctx context.Context, key string, entry leads.CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisKeyPrefix+key, data, 0)
	pipe.LRem(ctx, redisIndexKey, 0, key)
	pipe.LPush(ctx, redisIndexKey, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

// Delete removes the entry and its index position.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, redisKeyPrefix+key)
	pipe.LRem(ctx, redisIndexKey, 0, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Keys returns the index list, most recently put first.
func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.client.LRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis keys: %w", err)
	}
	return keys, nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
