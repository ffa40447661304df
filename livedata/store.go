package livedata

import (
	"context"
	"time"

	"floorchat-backend/models"

	"github.com/google/uuid"
)

// ProductionStore is the read-only view of the factory's production records.
// Every method is scoped to a factory and returns at most limit rows.
// Dates are calendar dates; the time-of-day component is ignored.
type ProductionStore interface {
	SewingActuals(ctx context.Context, factoryID uuid.UUID, date time.Time, limit int) ([]models.SewingActual, error)
	SewingTargets(ctx context.Context, factoryID uuid.UUID, date time.Time, limit int) ([]models.SewingTarget, error)
	ActiveBlockers(ctx context.Context, factoryID uuid.UUID, date time.Time, limit int) ([]models.Blocker, error)
	WorkOrders(ctx context.Context, factoryID uuid.UUID, filter models.WorkOrderFilter, limit int) ([]models.WorkOrder, error)
	SewingActualsForWorkOrders(ctx context.Context, factoryID uuid.UUID, workOrderIDs []uuid.UUID, through time.Time, limit int) ([]models.SewingActual, error)
	FinishingLogsForWorkOrders(ctx context.Context, factoryID uuid.UUID, workOrderIDs []uuid.UUID, through time.Time, limit int) ([]models.FinishingLog, error)
	CuttingActuals(ctx context.Context, factoryID uuid.UUID, date time.Time, limit int) ([]models.CuttingActual, error)
	FinishingLogs(ctx context.Context, factoryID uuid.UUID, date time.Time, limit int) ([]models.FinishingLog, error)
	StorageTransactions(ctx context.Context, factoryID uuid.UUID, date time.Time, limit int) ([]models.StorageTransaction, error)
	ActiveLines(ctx context.Context, factoryID uuid.UUID, limit int) ([]models.Line, error)
}
