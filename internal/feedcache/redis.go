// Package feedcache caches public feed responses in Redis.
package feedcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix  = "lootd:feed:"
	defaultTTL = 10 * time.Second
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Commands is the subset of the Redis client the cache uses.
type Commands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Cache stores serialized feed payloads with a short TTL.
type Cache struct {
	commands Commands
	ttl      time.Duration
	logger   *zap.Logger
}

// New wraps Redis commands; a non-positive ttl uses the default.
func New(commands Commands, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{commands: commands, ttl: ttl, logger: logger}
}

// Dial connects to Redis and verifies the connection.
func Dial(ctx context.Context, options Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     options.Addr,
		Password: options.Password,
		DB:       options.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Get returns a cached payload. Misses and Redis errors both report false.
func (cache *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := cache.commands.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cache.logger.Warn("feed cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return value, true
}

// Set stores a payload for the cache TTL.
func (cache *Cache) Set(ctx context.Context, key string, value []byte) {
	if err := cache.commands.Set(ctx, keyPrefix+key, value, cache.ttl).Err(); err != nil {
		cache.logger.Warn("feed cache write failed", zap.String("key", key), zap.Error(err))
	}
}
