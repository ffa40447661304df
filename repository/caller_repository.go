package repository

import (
	"context"
	"fmt"

	"floorchat-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CallerRepository handles database operations for API callers
type CallerRepository struct {
	db *pgxpool.Pool
}

// NewCallerRepository creates a new caller repository
func NewCallerRepository(db *pgxpool.Pool) *CallerRepository {
	return &CallerRepository{db: db}
}

// Create inserts a caller. APIKeyHash must already be set.
func (r *CallerRepository) Create(ctx context.Context, caller *models.Caller) error {
	query := `
		INSERT INTO callers (name, role, factory_id, features, api_key_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	features := caller.Features
	if features == nil {
		features = []string{}
	}

	err := r.db.QueryRow(
		ctx, query,
		caller.Name,
		caller.Role,
		caller.FactoryID,
		features,
		caller.APIKeyHash,
	).Scan(&caller.ID, &caller.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create caller: %w", err)
	}
	return nil
}

// GetByID retrieves a caller with its factory's name and timezone
func (r *CallerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Caller, error) {
	caller := &models.Caller{}
	query := `
		SELECT c.id, c.name, c.role, c.factory_id,
			COALESCE(f.name, ''), COALESCE(f.timezone, ''),
			c.features, c.api_key_hash, c.created_at
		FROM callers c
		LEFT JOIN factories f ON f.id = c.factory_id
		WHERE c.id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&caller.ID,
		&caller.Name,
		&caller.Role,
		&caller.FactoryID,
		&caller.FactoryName,
		&caller.Timezone,
		&caller.Features,
		&caller.APIKeyHash,
		&caller.CreatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err)
	}

	return caller, nil
}
