// Package knowledge retrieves archival passages (SOPs, manuals, policies)
// relevant to a question by vector similarity.
package knowledge

import (
	"context"
	"sort"
	"strings"

	"floorchat-backend/models"

	"go.uber.org/zap"
)

const (
	DefaultTopK          = 5
	DefaultMinSimilarity = 0.3
)

// Embedder turns a question into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChunkSearcher finds the chunks nearest to an embedding.
// Results carry SimilarityScore = 1 - cosine distance.
type ChunkSearcher interface {
	SearchChunks(ctx context.Context, embedding []float32, limit int, minSimilarity float64) ([]models.SourceChunk, error)
}

// URLResolver produces a fetchable URL for a stored document.
type URLResolver interface {
	URL(ctx context.Context, key string) (string, error)
}

// Retriever embeds a question and searches the knowledge base.
type Retriever struct {
	embedder      Embedder
	searcher      ChunkSearcher
	urls          URLResolver
	topK          int
	minSimilarity float64
	logger        *zap.Logger
}

// Option configures a Retriever
type Option func(*Retriever)

// WithTopK sets the maximum number of passages returned
func WithTopK(k int) Option {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithMinSimilarity sets the similarity floor
func WithMinSimilarity(s float64) Option {
	return func(r *Retriever) {
		if s >= 0 && s <= 1 {
			r.minSimilarity = s
		}
	}
}

// WithURLResolver fills in source URLs from document storage
func WithURLResolver(u URLResolver) Option {
	return func(r *Retriever) {
		r.urls = u
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRetriever creates a Retriever
func NewRetriever(embedder Embedder, searcher ChunkSearcher, opts ...Option) *Retriever {
	r := &Retriever{
		embedder:      embedder,
		searcher:      searcher,
		topK:          DefaultTopK,
		minSimilarity: DefaultMinSimilarity,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns up to topK passages at or above the similarity floor,
// most similar first. Any failure yields an empty list.
func (r *Retriever) Retrieve(ctx context.Context, message string) []models.SourceChunk {
	empty := []models.SourceChunk{}
	if strings.TrimSpace(message) == "" {
		return empty
	}

	embedding, err := r.embedder.Embed(ctx, message)
	if err != nil {
		r.logger.Warn("knowledge embedding failed, continuing without sources", zap.Error(err))
		return empty
	}

	chunks, err := r.searcher.SearchChunks(ctx, embedding, r.topK, r.minSimilarity)
	if err != nil {
		r.logger.Warn("knowledge search failed, continuing without sources", zap.Error(err))
		return empty
	}

	out := make([]models.SourceChunk, 0, len(chunks))
	for _, c := range chunks {
		if c.SimilarityScore < r.minSimilarity {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SimilarityScore > out[j].SimilarityScore
	})
	if len(out) > r.topK {
		out = out[:r.topK]
	}

	r.resolveURLs(ctx, out)
	return out
}

func (r *Retriever) resolveURLs(ctx context.Context, chunks []models.SourceChunk) {
	if r.urls == nil {
		return
	}
	resolved := make(map[string]string)
	for i := range chunks {
		c := &chunks[i]
		if c.SourceURL != "" || c.StorageKey == "" {
			continue
		}
		if url, ok := resolved[c.StorageKey]; ok {
			c.SourceURL = url
			continue
		}
		url, err := r.urls.URL(ctx, c.StorageKey)
		if err != nil {
			r.logger.Debug("no source url for knowledge document",
				zap.String("storage_key", c.StorageKey), zap.Error(err))
			continue
		}
		resolved[c.StorageKey] = url
		c.SourceURL = url
	}
}
