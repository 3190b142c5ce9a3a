// Package cache provides the redis-backed cache used to memoize assembled
// knowledge-base context between chat requests.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sabia-ai/sabia/config"
)

// ErrCacheMiss is returned when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// IsCacheMiss reports whether err is a cache miss.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// Manager wraps a redis client with logging and a default TTL.
type Manager struct {
	redis      *redis.Client
	defaultTTL time.Duration
	logger     *zap.Logger
}

// NewManager connects to redis and verifies the connection with a ping.
func NewManager(cfg config.RedisConfig, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	logger.Info("cache connected", zap.String("addr", cfg.Addr))

	return &Manager{
		redis:      client,
		defaultTTL: ttl,
		logger:     logger.With(zap.String("component", "cache")),
	}, nil
}

// Get returns the value at key or ErrCacheMiss.
func (m *Manager) Get(ctx context.Context, key string) (string, error) {
	val, err := m.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		m.logger.Error("cache get failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("cache get failed: %w", err)
	}
	return val, nil
}

// Set stores value at key. A zero ttl selects the default.
func (m *Manager) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = m.defaultTTL
	}
	if err := m.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		m.logger.Error("cache set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// Delete removes keys.
func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := m.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete failed: %w", err)
	}
	return nil
}

// FlushAll clears the whole database. Used when the knowledge base is
// cleared so stale context cannot be served.
func (m *Manager) FlushAll(ctx context.Context) error {
	if err := m.redis.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("cache flush failed: %w", err)
	}
	return nil
}

// Ping checks the redis connection.
func (m *Manager) Ping(ctx context.Context) error {
	return m.redis.Ping(ctx).Err()
}

// Close releases the redis client.
func (m *Manager) Close() error {
	return m.redis.Close()
}

// ContextCache memoizes assembled knowledge-base context per (query, token
// budget) pair. A nil *ContextCache is valid and always misses, so callers
// need no conditionals when caching is disabled.
type ContextCache struct {
	manager *Manager
}

// NewContextCache creates a context cache over manager. A nil manager yields
// a nil cache.
func NewContextCache(manager *Manager) *ContextCache {
	if manager == nil {
		return nil
	}
	return &ContextCache{manager: manager}
}

// Key derives the cache key: SHA-256 over the query and budget.
func Key(query string, maxTokens int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "context:%d:%s", maxTokens, query))
	return "ctx:" + hex.EncodeToString(sum[:])
}

// Get returns the cached context for the query, or ErrCacheMiss.
func (c *ContextCache) Get(ctx context.Context, query string, maxTokens int) (string, error) {
	if c == nil {
		return "", ErrCacheMiss
	}
	return c.manager.Get(ctx, Key(query, maxTokens))
}

// Set stores the assembled context for the query under the default TTL.
func (c *ContextCache) Set(ctx context.Context, query string, maxTokens int, value string) error {
	if c == nil {
		return nil
	}
	return c.manager.Set(ctx, Key(query, maxTokens), value, 0)
}

// Invalidate drops every cached context.
func (c *ContextCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.manager.FlushAll(ctx)
}
