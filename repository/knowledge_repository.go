package repository

import (
	"context"
	"fmt"

	"floorchat-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingDimensions is the width of knowledge_chunks.embedding.
const EmbeddingDimensions = 768

// KnowledgeRepository stores knowledge documents and searches their chunks
type KnowledgeRepository struct {
	db *pgxpool.Pool
}

// NewKnowledgeRepository creates a new knowledge repository
func NewKnowledgeRepository(db *pgxpool.Pool) *KnowledgeRepository {
	return &KnowledgeRepository{db: db}
}

// SearchChunks returns the chunks nearest to embedding by cosine distance,
// keeping those with similarity (1 - distance) of at least minSimilarity.
func (r *KnowledgeRepository) SearchChunks(ctx context.Context, embedding []float32, limit int, minSimilarity float64) ([]models.SourceChunk, error) {
	if len(embedding) != EmbeddingDimensions {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", EmbeddingDimensions, len(embedding))
	}

	query := `
		SELECT
			kc.id,
			kc.document_id,
			kd.title,
			kd.doc_type,
			kc.section_label,
			kc.page_number,
			kc.content,
			1 - (kc.embedding <=> $1::vector) AS similarity,
			kd.source_url,
			kd.storage_key
		FROM knowledge_chunks kc
		JOIN knowledge_documents kd ON kd.id = kc.document_id
		WHERE 1 - (kc.embedding <=> $1::vector) >= $2
		ORDER BY kc.embedding <=> $1::vector
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, pgvector.NewVector(embedding), minSimilarity, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.SourceChunk
	for rows.Next() {
		var c models.SourceChunk
		err := rows.Scan(
			&c.ID,
			&c.ParentDocumentID,
			&c.Title,
			&c.Type,
			&c.SectionLabel,
			&c.PageNumber,
			&c.Content,
			&c.SimilarityScore,
			&c.SourceURL,
			&c.StorageKey,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan knowledge chunk: %w", err)
		}
		chunks = append(chunks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating knowledge chunks: %w", err)
	}

	return chunks, nil
}

// ReplaceDocument stores doc and its chunks in one transaction, removing any
// earlier document with the same title along with its chunks.
func (r *KnowledgeRepository) ReplaceDocument(ctx context.Context, doc *models.KnowledgeDocument, chunks []models.KnowledgeChunk) error {
	for _, c := range chunks {
		if len(c.Embedding) != EmbeddingDimensions {
			return fmt.Errorf("chunk %d: embedding must be %d dimensions, got %d", c.ChunkIndex, EmbeddingDimensions, len(c.Embedding))
		}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM knowledge_documents WHERE title = $1`, doc.Title); err != nil {
		return fmt.Errorf("failed to remove previous document: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO knowledge_documents (title, doc_type, storage_key, source_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		doc.Title, doc.Type, doc.StorageKey, doc.SourceURL,
	).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	for i := range chunks {
		c := &chunks[i]
		c.DocumentID = doc.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO knowledge_chunks (document_id, chunk_index, section_label, page_number, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6::vector)
			RETURNING id`,
			c.DocumentID, c.ChunkIndex, c.SectionLabel, c.PageNumber, c.Content, pgvector.NewVector(c.Embedding),
		).Scan(&c.ID)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", c.ChunkIndex, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DocumentByTitle returns the stored document with title
func (r *KnowledgeRepository) DocumentByTitle(ctx context.Context, title string) (*models.KnowledgeDocument, error) {
	doc := &models.KnowledgeDocument{}
	err := r.db.QueryRow(ctx, `
		SELECT id, title, doc_type, storage_key, source_url, created_at
		FROM knowledge_documents
		WHERE title = $1`, title,
	).Scan(&doc.ID, &doc.Title, &doc.Type, &doc.StorageKey, &doc.SourceURL, &doc.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return doc, nil
}
