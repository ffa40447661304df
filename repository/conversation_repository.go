package repository

import (
	"context"
	"fmt"

	"floorchat-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConversationRepository handles the append-only chat log and its analytics
type ConversationRepository struct {
	db *pgxpool.Pool
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// CreateConversation creates a new conversation
func (r *ConversationRepository) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	query := `
		INSERT INTO conversations (caller_id, factory_id, title)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, conv.CallerID, conv.FactoryID, conv.Title).
		Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// GetConversation retrieves a conversation by ID
func (r *ConversationRepository) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	conv := &models.Conversation{}
	query := `
		SELECT id, caller_id, factory_id, title, created_at, updated_at
		FROM conversations
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&conv.ID,
		&conv.CallerID,
		&conv.FactoryID,
		&conv.Title,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return conv, nil
}

// ListConversations returns a caller's conversations, most recent first
func (r *ConversationRepository) ListConversations(ctx context.Context, callerID uuid.UUID, limit int) ([]models.Conversation, error) {
	query := `
		SELECT id, caller_id, factory_id, title, created_at, updated_at
		FROM conversations
		WHERE caller_id = $1
		ORDER BY updated_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, callerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var out []models.Conversation
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.CallerID, &c.FactoryID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}
	return out, nil
}

// AppendMessage inserts a message and touches the conversation
func (r *ConversationRepository) AppendMessage(ctx context.Context, msg *models.Message) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO chat_messages (conversation_id, role, content, citations, tokens_used, model, no_evidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		msg.ConversationID,
		msg.Role,
		msg.Content,
		msg.Citations,
		msg.TokensUsed,
		msg.Model,
		msg.NoEvidence,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE conversations SET updated_at = NOW() WHERE id = $1`, msg.ConversationID); err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RecentMessages returns the last limit messages in chronological order
func (r *ConversationRepository) RecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]models.Message, error) {
	query := `
		SELECT id, conversation_id, role, content, citations, tokens_used, model, no_evidence, created_at
		FROM (
			SELECT *
			FROM chat_messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC`

	return r.queryMessages(ctx, query, conversationID, limit)
}

// ListMessages returns a conversation's full log in chronological order
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	query := `
		SELECT id, conversation_id, role, content, citations, tokens_used, model, no_evidence, created_at
		FROM chat_messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC`

	return r.queryMessages(ctx, query, conversationID)
}

func (r *ConversationRepository) queryMessages(ctx context.Context, query string, args ...any) ([]models.Message, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var m models.Message
		err := rows.Scan(
			&m.ID,
			&m.ConversationID,
			&m.Role,
			&m.Content,
			&m.Citations,
			&m.TokensUsed,
			&m.Model,
			&m.NoEvidence,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return out, nil
}

// RecordAnalytics stores the quality metrics for an assistant message
func (r *ConversationRepository) RecordAnalytics(ctx context.Context, a *models.MessageAnalytics) error {
	categories := a.Categories
	if categories == nil {
		categories = []string{}
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO chat_analytics (
			message_id, conversation_id, factory_id, answer_length, citation_count,
			no_evidence, language, categories, live_result_count, source_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`,
		a.MessageID,
		a.ConversationID,
		a.FactoryID,
		a.AnswerLength,
		a.CitationCount,
		a.NoEvidence,
		a.Language,
		categories,
		a.LiveResultCount,
		a.SourceCount,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record analytics: %w", err)
	}
	return nil
}
