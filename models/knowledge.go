package models

import (
	"time"

	"github.com/google/uuid"
)

// SourceChunk represents a retrieved passage from the knowledge base
type SourceChunk struct {
	ID               uuid.UUID `json:"id"`
	ParentDocumentID uuid.UUID `json:"parent_document_id"`
	Title            string    `json:"title"`
	Type             string    `json:"type"` // "sop", "manual", "policy", "report"
	SectionLabel     string    `json:"section_label,omitempty"`
	PageNumber       *int      `json:"page_number,omitempty"`
	Content          string    `json:"content"`
	SimilarityScore  float64   `json:"similarity_score"`
	SourceURL        string    `json:"source_url,omitempty"`
	StorageKey       string    `json:"-"`
}

// KnowledgeDocument represents an archival document split into chunks
type KnowledgeDocument struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	StorageKey string    `json:"storage_key,omitempty"`
	SourceURL  string    `json:"source_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// KnowledgeChunk represents a chunk to be embedded and stored
type KnowledgeChunk struct {
	ID           uuid.UUID `json:"id"`
	DocumentID   uuid.UUID `json:"document_id"`
	ChunkIndex   int       `json:"chunk_index"`
	SectionLabel string    `json:"section_label,omitempty"`
	PageNumber   *int      `json:"page_number,omitempty"`
	Content      string    `json:"content"`
	Embedding    []float32 `json:"-"`
}
