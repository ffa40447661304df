package config

import (
	"testing"
	"time"

	"floorchat-backend/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 60*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 1024, cfg.MaxOutputTokens)
	assert.Equal(t, 5, cfg.KnowledgeTopK)
	assert.InDelta(t, 0.3, cfg.KnowledgeMinSimilarity, 1e-9)
	assert.Equal(t, 24*time.Hour, cfg.EmbeddingCacheTTL)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, storage.StorageTypeLocal, cfg.Storage.Type)
	assert.Equal(t, storage.DefaultURLExpiry, cfg.Storage.URLExpiry)
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"PORT":                     "9090",
		"GENERATION_TIMEOUT":       "15s",
		"MAX_OUTPUT_TOKENS":        "512",
		"KNOWLEDGE_MIN_SIMILARITY": "0.45",
		"REDIS_URL":                "redis://localhost:6379/0",
		"STORAGE_TYPE":             "S3",
		"AWS_S3_BUCKET":            "floor-docs",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 512, cfg.MaxOutputTokens)
	assert.InDelta(t, 0.45, cfg.KnowledgeMinSimilarity, 1e-9)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, storage.StorageTypeS3, cfg.Storage.Type)
	assert.Equal(t, "floor-docs", cfg.Storage.S3Bucket)
}

func TestFromLookup_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad duration", map[string]string{"GENERATION_TIMEOUT": "soon"}, "GENERATION_TIMEOUT"},
		{"bad int", map[string]string{"MAX_OUTPUT_TOKENS": "lots"}, "MAX_OUTPUT_TOKENS"},
		{"bad float", map[string]string{"KNOWLEDGE_MIN_SIMILARITY": "high"}, "KNOWLEDGE_MIN_SIMILARITY"},
		{"out of range", map[string]string{"KNOWLEDGE_MIN_SIMILARITY": "1.5"}, "between 0 and 1"},
		{"zero timeout", map[string]string{"GENERATION_TIMEOUT": "0s"}, "must be positive"},
		{"unknown storage", map[string]string{"STORAGE_TYPE": "ftp"}, "STORAGE_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromLookup(lookupFrom(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFromLookup_BlankValuesUseDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{"PORT": "   "}))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
}
