package knowledge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"floorchat-backend/models"
	"floorchat-backend/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrEmptyDocument is returned for documents with no text to index.
var ErrEmptyDocument = errors.New("document has no content")

// DefaultEmbedConcurrency caps parallel embedding calls per document.
const DefaultEmbedConcurrency = 4

// DocumentEmbedder embeds passages for storage.
type DocumentEmbedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
}

// DocumentStore replaces a document and its chunks atomically.
type DocumentStore interface {
	ReplaceDocument(ctx context.Context, doc *models.KnowledgeDocument, chunks []models.KnowledgeChunk) error
}

// FileStore keeps a document's original file.
type FileStore interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Ingester chunks, embeds and stores knowledge documents.
type Ingester struct {
	embedder    DocumentEmbedder
	store       DocumentStore
	files       FileStore
	chunkRunes  int
	concurrency int
	logger      *zap.Logger
}

// IngestOption configures an Ingester
type IngestOption func(*Ingester)

// IngestWithFileStore uploads originals to files
func IngestWithFileStore(files FileStore) IngestOption {
	return func(in *Ingester) {
		in.files = files
	}
}

// IngestWithChunkRunes sets the chunk size
func IngestWithChunkRunes(n int) IngestOption {
	return func(in *Ingester) {
		if n > 0 {
			in.chunkRunes = n
		}
	}
}

// IngestWithConcurrency sets the number of parallel embedding calls
func IngestWithConcurrency(n int) IngestOption {
	return func(in *Ingester) {
		if n > 0 {
			in.concurrency = n
		}
	}
}

// IngestWithLogger sets the logger
func IngestWithLogger(l *zap.Logger) IngestOption {
	return func(in *Ingester) {
		if l != nil {
			in.logger = l
		}
	}
}

// NewIngester creates an Ingester
func NewIngester(embedder DocumentEmbedder, store DocumentStore, opts ...IngestOption) *Ingester {
	in := &Ingester{
		embedder:    embedder,
		store:       store,
		chunkRunes:  DefaultChunkRunes,
		concurrency: DefaultEmbedConcurrency,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Document is a file to index. Empty Title and Type are derived from the
// file name and content.
type Document struct {
	Filename string
	Title    string
	Type     string
	Content  []byte
}

// Ingest indexes doc, replacing any earlier document with the same title.
func (in *Ingester) Ingest(ctx context.Context, doc Document) (*models.KnowledgeDocument, int, error) {
	text := string(doc.Content)
	sections := Split(text, in.chunkRunes)
	if len(sections) == 0 {
		return nil, 0, ErrEmptyDocument
	}

	kd := &models.KnowledgeDocument{
		Title: strings.TrimSpace(doc.Title),
		Type:  strings.TrimSpace(doc.Type),
	}
	if kd.Title == "" {
		kd.Title = Title(doc.Filename, text)
	}
	if kd.Type == "" {
		kd.Type = DocumentType(doc.Filename, text)
	}

	chunks, err := in.embed(ctx, kd.Title, sections)
	if err != nil {
		return nil, 0, err
	}

	if in.files != nil {
		kd.StorageKey = storage.DocumentKey(uuid.New(), doc.Filename)
		if err := in.files.Upload(ctx, kd.StorageKey, bytes.NewReader(doc.Content), storage.ContentType(doc.Filename)); err != nil {
			return nil, 0, fmt.Errorf("failed to upload %s: %w", doc.Filename, err)
		}
	}

	if err := in.store.ReplaceDocument(ctx, kd, chunks); err != nil {
		if in.files != nil {
			if derr := in.files.Delete(ctx, kd.StorageKey); derr != nil {
				in.logger.Warn("failed to remove orphaned upload",
					zap.String("key", kd.StorageKey),
					zap.Error(derr))
			}
		}
		return nil, 0, fmt.Errorf("failed to store %s: %w", kd.Title, err)
	}

	in.logger.Info("document ingested",
		zap.String("title", kd.Title),
		zap.String("type", kd.Type),
		zap.Int("chunks", len(chunks)))
	return kd, len(chunks), nil
}

func (in *Ingester) embed(ctx context.Context, title string, sections []Section) ([]models.KnowledgeChunk, error) {
	chunks := make([]models.KnowledgeChunk, len(sections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.concurrency)
	for i, s := range sections {
		i, s := i, s
		chunks[i] = models.KnowledgeChunk{
			ChunkIndex:   i,
			SectionLabel: s.Label,
			PageNumber:   s.Page,
			Content:      s.Content,
		}
		g.Go(func() error {
			emb, err := in.embedder.EmbedDocument(gctx, embeddingText(title, s))
			if err != nil {
				return fmt.Errorf("failed to embed chunk %d: %w", i, err)
			}
			chunks[i].Embedding = emb
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// embeddingText prefixes a chunk with its document title and section so
// short passages keep their context.
func embeddingText(title string, s Section) string {
	var b strings.Builder
	b.WriteString(title)
	if s.Label != "" {
		b.WriteString(" / ")
		b.WriteString(s.Label)
	}
	b.WriteString("\n\n")
	b.WriteString(s.Content)
	return b.String()
}
