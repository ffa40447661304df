// Package cache keeps query embeddings in Redis so repeated questions skip the
// embedding provider.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultTTL = 24 * time.Hour
	keyPrefix  = "embedding:"
)

// Embedder produces an embedding for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// kv is the subset of the Redis client the cache needs.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// EmbeddingCache is an Embedder that consults Redis before calling the
// wrapped Embedder. Redis failures are logged and never fail the call.
type EmbeddingCache struct {
	rdb    kv
	next   Embedder
	ttl    time.Duration
	model  string
	logger *zap.Logger
}

// Option configures an EmbeddingCache
type Option func(*EmbeddingCache)

// WithTTL sets the entry lifetime
func WithTTL(ttl time.Duration) Option {
	return func(c *EmbeddingCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithModel namespaces keys by embedding model so a model change never
// serves stale vectors.
func WithModel(model string) Option {
	return func(c *EmbeddingCache) {
		c.model = model
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *EmbeddingCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewEmbeddingCache wraps next. A nil rdb disables caching.
func NewEmbeddingCache(rdb *redis.Client, next Embedder, opts ...Option) *EmbeddingCache {
	var store kv
	if rdb != nil {
		store = rdb
	}
	return newEmbeddingCache(store, next, opts...)
}

func newEmbeddingCache(store kv, next Embedder, opts ...Option) *EmbeddingCache {
	c := &EmbeddingCache{
		rdb:    store,
		next:   next,
		ttl:    DefaultTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Embed returns the cached embedding for text, computing and storing it on a miss.
func (c *EmbeddingCache) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.rdb == nil {
		return c.next.Embed(ctx, text)
	}

	key := c.key(text)
	if v, ok := c.lookup(ctx, key); ok {
		return v, nil
	}

	v, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(v)
	if err == nil {
		err = c.rdb.Set(ctx, key, data, c.ttl).Err()
	}
	if err != nil {
		c.logger.Warn("failed to store embedding in cache", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

func (c *EmbeddingCache) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	var v []float32
	if err := json.Unmarshal(data, &v); err != nil || len(v) == 0 {
		c.logger.Warn("discarding corrupt cached embedding", zap.String("key", key))
		return nil, false
	}
	return v, true
}

// key hashes the case- and whitespace-normalized text.
func (c *EmbeddingCache) key(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized))
	if c.model == "" {
		return keyPrefix + hex.EncodeToString(sum[:])
	}
	return keyPrefix + c.model + ":" + hex.EncodeToString(sum[:])
}

// NewClient connects to the Redis server at url and verifies it responds.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}
