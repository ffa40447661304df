package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
	err   error
}

func (e *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 0.5}, nil
}

type memoryKV struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failGet bool
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryKV) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return redis.NewStringResult("", errors.New("connection refused"))
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memoryKV) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	m.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func TestEmbed_NilClientPassesThrough(t *testing.T) {
	next := &countingEmbedder{}
	c := NewEmbeddingCache(nil, next)

	_, err := c.Embed(context.Background(), "q")
	require.NoError(t, err)
	_, err = c.Embed(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, 2, next.calls)
}

func TestEmbed_HitSkipsProvider(t *testing.T) {
	next := &countingEmbedder{}
	store := newMemoryKV()
	c := newEmbeddingCache(store, next, WithTTL(time.Hour), WithModel("text-embedding-004"))

	first, err := c.Embed(context.Background(), "Output on line 3?")
	require.NoError(t, err)
	second, err := c.Embed(context.Background(), "  output ON line 3? ")
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first, second)
	for k, ttl := range store.ttls {
		assert.True(t, strings.HasPrefix(k, "embedding:text-embedding-004:"))
		assert.Equal(t, time.Hour, ttl)
	}
}

func TestEmbed_ReadFailureFallsBackToProvider(t *testing.T) {
	next := &countingEmbedder{}
	store := newMemoryKV()
	store.failGet = true
	c := newEmbeddingCache(store, next)

	v, err := c.Embed(context.Background(), "cutting")
	require.NoError(t, err)
	assert.NotEmpty(t, v)
	assert.Equal(t, 1, next.calls)
}

func TestEmbed_ProviderErrorIsReturned(t *testing.T) {
	next := &countingEmbedder{err: errors.New("quota exceeded")}
	c := newEmbeddingCache(newMemoryKV(), next)

	_, err := c.Embed(context.Background(), "cutting")
	assert.EqualError(t, err, "quota exceeded")
}

func TestEmbed_CorruptEntryIsRecomputed(t *testing.T) {
	next := &countingEmbedder{}
	store := newMemoryKV()
	c := newEmbeddingCache(store, next)
	store.data[c.key("finishing")] = "not json"

	v, err := c.Embed(context.Background(), "finishing")
	require.NoError(t, err)
	assert.Len(t, v, 2)
	assert.Equal(t, 1, next.calls)
}

func TestKey(t *testing.T) {
	c := newEmbeddingCache(nil, nil)
	assert.Equal(t, c.key("Hello   World"), c.key("hello world"))
	assert.NotEqual(t, c.key("hello"), c.key("world"))

	withModel := newEmbeddingCache(nil, nil, WithModel("m1"))
	assert.NotEqual(t, c.key("hello"), withModel.key("hello"))
}
