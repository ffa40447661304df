package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"floorchat-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductionRepository reads the factory's production records.
// Every query is filtered on factory_id.
type ProductionRepository struct {
	db *pgxpool.Pool
}

// NewProductionRepository creates a new production repository
func NewProductionRepository(db *pgxpool.Pool) *ProductionRepository {
	return &ProductionRepository{db: db}
}

const sewingActualColumns = `
	sa.id, sa.line_id, l.name, sa.work_order_id,
	COALESCE(wo.po_number, ''), COALESCE(wo.buyer, ''), COALESCE(wo.style, ''),
	sa.good_output, sa.reject_qty, sa.rework_qty, sa.manpower, sa.cumulative_good_total,
	sa.has_blocker, sa.blocker_description, sa.production_date, sa.submitted_at`

// SewingActuals returns the sewing output submissions for a date
func (r *ProductionRepository) SewingActuals(ctx context.Context, factoryID uuid.UUID, date time.Time, limit int) ([]models.SewingActual, error) {
	query := `
		SELECT ` + sewingActualColumns + `
		FROM sewing_actuals sa
		JOIN lines l ON l.id = sa.line_id
		LEFT JOIN work_orders wo ON wo.id = sa.work_order_id
		WHERE sa.factory_id = $1 AND sa.production_date = $2
		ORDER BY l.name, sa.submitted_at
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, factoryID, date, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sewing actuals: %w", err)
	}
	return collectSewingActuals(rows)
}

// SewingActualsForWorkOrders returns, for each (work order, line), the
// submission with the highest cumulative total on or before through.
func (r *ProductionRepository) SewingActualsForWorkOrders(ctx context.Context, factoryID uuid.UUID, workOrderIDs []uuid.UUID, through time.Time, limit int) ([]models.SewingActual, error) {
	if len(workOrderIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT DISTINCT ON (sa.work_order_id, sa.line_id) ` + sewingActualColumns + `
		FROM sewing_actuals sa
		JOIN lines l ON l.id = sa.line_id
		LEFT JOIN work_orders wo ON wo.id = sa.work_order_id
		WHERE sa.factory_id = $1
			AND sa.work_order_id = ANY($2::uuid[])
			AND sa.production_date <= $3
		ORDER BY sa.work_order_id, sa.line_id, sa.cumulative_good_total DESC
		LIMIT $4`

	rows, err := r.db.Query(ctx, query, factoryID, uuidStrings(workOrderIDs), through, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query work order sewing progress: %w", err)
	}
	return collectSewingActuals(rows)
}

func collectSewingActuals(rows pgx.Rows) ([]models.SewingActual, error) {
	defer rows.Close()

	var out []models.SewingActual
	for rows.Next() {
		var a models.SewingActual
		err := rows.Scan(
			&a.ID, &a.LineID, &a.LineName, &a.WorkOrderID,
			&a.PONumber, &a.Buyer, &a.Style,
			&a.GoodOutput, &a.RejectQty, &a.ReworkQty, &a.Manpower, &a.CumulativeGoodTotal,
			&a.HasBlocker, &a.BlockerDescription, &a.ProductionDate, &a.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sewing actual: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sewing actuals: %w", err)
	}
	return out, nil
}

// SewingTargets returns the targets set for a date
func (r *ProductionRepository) SewingTargets(ctx context.Context, factoryID uuid.UUID, date time.Time, limit int) ([]models.SewingTarget, error) {
	query := `
		SELECT st.id, st.line_id, l.name, st.work_order_id, COALESCE(wo.po_number, ''),
			st.per_hour_target, st.day_target, st.planned_manpower, st.production_date
		FROM sewing_targets st
		JOIN lines l ON l.id = st.line_id
		LEFT JOIN work_orders wo ON wo.id = st.work_order_id
		WHERE st.factory_id = $1 AND st.production_date = $2
		ORDER BY l.name
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, factoryID, date, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sewing targets: %w", err)
	}
	defer rows.Close()

	var out []models.SewingTarget
	for rows.Next() {
		var t models.SewingTarget
		err := rows.Scan(
			&t.ID, &t.LineID, &t.LineName, &t.WorkOrderID, &t.PONumber,
			&t.PerHourTarget, &t.DayTarget, &t.PlannedManpower, &t.ProductionDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sewing target: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sewing targets: %w", err)
	}
	return out, nil
}

// ActiveBlockers returns unresolved blockers raised on or before date,
// most severe first.
func (r *ProductionRepository) ActiveBlockers(ctx context.Context, factoryID uuid.UUID, date time.Time, limit int) ([]models.Blocker, error) {
	query := `
		SELECT b.id, b.line_id, l.name, COALESCE(wo.po_number, ''), b.description,
			b.impact, b.status, b.production_date, b.created_at
		FROM blockers b
		JOIN lines l ON l.id = b.line_id
		LEFT JOIN work_orders wo ON wo.id = b.work_order_id
		WHERE b.factory_id = $1
			AND b.production_date <= $2
			AND b.status <> 'resolved'
		ORDER BY CASE b.impact
				WHEN 'critical' THEN 0
				WHEN 'high' THEN 1
				WHEN 'medium' THEN 2
				ELSE 3
			END,
			b.created_at DESC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, factoryID, date, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query blockers: %w", err)
	}
	defer rows.Close()

	var out []models.Blocker
	for rows.Next() {
		var b models.Blocker
		err := rows.Scan(
			&b.ID, &b.LineID, &b.LineName, &b.PONumber, &b.Description,
			&b.Impact, &b.Status, &b.ProductionDate, &b.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blocker: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blockers: %w", err)
	}
	return out, nil
}

// WorkOrders returns work orders matching filter. A PO number takes
// precedence over a buyer; with neither, ActiveOnly decides.
func (r *ProductionRepository) WorkOrders(ctx context.Context, factoryID uuid.UUID, filter models.WorkOrderFilter, limit int) ([]models.WorkOrder, error) {
	query := `
		SELECT id, po_number, buyer, style, item, order_qty, status, planned_ex_factory
		FROM work_orders
		WHERE factory_id = $1
			AND CASE
				WHEN $2::text <> '' THEN
					ltrim(regexp_replace(po_number, '[^0-9]', '', 'g'), '0') = ltrim($2::text, '0')
				WHEN $3::text <> '' THEN
					buyer ILIKE '%' || $3::text || '%'
				ELSE TRUE
			END
			AND (NOT $4::boolean OR status NOT IN ('shipped', 'cancelled', 'closed'))
		ORDER BY planned_ex_factory NULLS LAST, po_number
		LIMIT $5`

	rows, err := r.db.Query(ctx, query,
		factoryID,
		poDigits(filter.PONumber),
		escapeLike(filter.Buyer),
		filter.ActiveOnly,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query work orders: %w", err)
	}
	defer rows.Close()

	var out []models.WorkOrder
	for rows.Next() {
		var wo models.WorkOrder
		err := rows.Scan(
			&wo.ID, &wo.PONumber, &wo.Buyer, &wo.Style, &wo.Item,
			&wo.OrderQty, &wo.Status, &wo.PlannedExFactory,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work order: %w", err)
		}
		out = append(out, wo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating work orders: %w", err)
	}
	return out, nil
}

const finishingLogColumns = `
	fl.id, fl.line_id, l.name, fl.work_order_id,
	COALESCE(wo.po_number, ''), COALESCE(wo.buyer, ''),
	fl.day_poly, fl.day_carton, fl.cumulative_output, fl.production_date, fl.submitted_at`

// FinishingLogs returns the finishing submissions for a date
func (r *ProductionRepository) FinishingLogs(ctx context.Context, factoryID uuid.UUID, date time.Time, limit int) ([]models.FinishingLog, error) {
	query := `
		SELECT ` + finishingLogColumns + `
		FROM finishing_logs fl
		JOIN lines l ON l.id = fl.line_id
		LEFT JOIN work_orders wo ON wo.id = fl.work_order_id
		WHERE fl.factory_id = $1 AND fl.production_date = $2
		ORDER BY l.name, fl.submitted_at
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, factoryID, date, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query finishing logs: %w", err)
	}
	return collectFinishingLogs(rows)
}

// FinishingLogsForWorkOrders returns, for each (work order, line), the
// submission with the highest cumulative output on or before through.
func (r *ProductionRepository) FinishingLogsForWorkOrders(ctx context.Context, factoryID uuid.UUID, workOrderIDs []uuid.UUID, through time.Time, limit int) ([]models.FinishingLog, error) {
	if len(workOrderIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT DISTINCT ON (fl.work_order_id, fl.line_id) ` + finishingLogColumns + `
		FROM finishing_logs fl
		JOIN lines l ON l.id = fl.line_id
		LEFT JOIN work_orders wo ON wo.id = fl.work_order_id
		WHERE fl.factory_id = $1
			AND fl.work_order_id = ANY($2::uuid[])
			AND fl.production_date <= $3
		ORDER BY fl.work_order_id, fl.line_id, fl.cumulative_output DESC
		LIMIT $4`

	rows, err := r.db.Query(ctx, query, factoryID, uuidStrings(workOrderIDs), through, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query work order finishing progress: %w", err)
	}
	return collectFinishingLogs(rows)
}

func collectFinishingLogs(rows pgx.Rows) ([]models.FinishingLog, error) {
	defer rows.Close()

	var out []models.FinishingLog
	for rows.Next() {
		var f models.FinishingLog
		err := rows.Scan(
			&f.ID, &f.LineID, &f.LineName, &f.WorkOrderID,
			&f.PONumber, &f.Buyer,
			&f.DayPoly, &f.DayCarton, &f.CumulativeOutput, &f.ProductionDate, &f.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan finishing log: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating finishing logs: %w", err)
	}
	return out, nil
}

// CuttingActuals returns the cutting submissions for a date
func (r *ProductionRepository) CuttingActuals(ctx context.Context, factoryID uuid.UUID, date time.Time, limit int) ([]models.CuttingActual, error) {
	query := `
		SELECT ca.id, COALESCE(l.name, ''), ca.work_order_id,
			COALESCE(wo.po_number, ''), COALESCE(wo.buyer, ''),
			ca.day_cutting, ca.total_cutting, ca.day_input, ca.total_input, ca.balance,
			ca.production_date
		FROM cutting_actuals ca
		LEFT JOIN lines l ON l.id = ca.line_id
		LEFT JOIN work_orders wo ON wo.id = ca.work_order_id
		WHERE ca.factory_id = $1 AND ca.production_date = $2
		ORDER BY wo.po_number NULLS LAST, ca.submitted_at
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, factoryID, date, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cutting actuals: %w", err)
	}
	defer rows.Close()

	var out []models.CuttingActual
	for rows.Next() {
		var c models.CuttingActual
		err := rows.Scan(
			&c.ID, &c.LineName, &c.WorkOrderID, &c.PONumber, &c.Buyer,
			&c.DayCutting, &c.TotalCutting, &c.DayInput, &c.TotalInput, &c.Balance,
			&c.ProductionDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cutting actual: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cutting actuals: %w", err)
	}
	return out, nil
}

// StorageTransactions returns the bin card movements recorded on a date
func (r *ProductionRepository) StorageTransactions(ctx context.Context, factoryID uuid.UUID, date time.Time, limit int) ([]models.StorageTransaction, error) {
	query := `
		SELECT st.id, st.work_order_id, COALESCE(wo.po_number, ''), COALESCE(wo.buyer, ''),
			st.description, st.receive_qty, st.issue_qty, st.balance_qty,
			st.transaction_date, st.created_at
		FROM storage_transactions st
		LEFT JOIN work_orders wo ON wo.id = st.work_order_id
		WHERE st.factory_id = $1 AND st.transaction_date = $2
		ORDER BY st.created_at
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, factoryID, date, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query storage transactions: %w", err)
	}
	defer rows.Close()

	var out []models.StorageTransaction
	for rows.Next() {
		var t models.StorageTransaction
		err := rows.Scan(
			&t.ID, &t.WorkOrderID, &t.PONumber, &t.Buyer,
			&t.Description, &t.ReceiveQty, &t.IssueQty, &t.BalanceQty,
			&t.TransactionDate, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan storage transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating storage transactions: %w", err)
	}
	return out, nil
}

// ActiveLines returns the factory's active production lines
func (r *ProductionRepository) ActiveLines(ctx context.Context, factoryID uuid.UUID, limit int) ([]models.Line, error) {
	query := `
		SELECT id, name, unit, floor, is_active
		FROM lines
		WHERE factory_id = $1 AND is_active
		ORDER BY name
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, factoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines: %w", err)
	}
	defer rows.Close()

	var out []models.Line
	for rows.Next() {
		var l models.Line
		if err := rows.Scan(&l.ID, &l.Name, &l.Unit, &l.Floor, &l.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lines: %w", err)
	}
	return out, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// poDigits strips a normalized PO hint ("PO-007") to its digits.
func poDigits(po string) string {
	var b strings.Builder
	for _, r := range po {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
