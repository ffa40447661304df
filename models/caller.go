package models

import (
	"time"

	"github.com/google/uuid"
)

// Caller represents an authenticated API caller.
// FactoryID is nil for callers without a factory association.
type Caller struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Role        string     `json:"role"` // "admin", "manager", "supervisor", "viewer"
	FactoryID   *uuid.UUID `json:"factory_id,omitempty"`
	FactoryName string     `json:"factory_name,omitempty"`
	Timezone    string     `json:"timezone,omitempty"`
	Features    []string   `json:"features"`
	APIKeyHash  string     `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
}
