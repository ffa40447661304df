package models

import (
	"time"

	"github.com/google/uuid"
)

// Line represents a sewing line on the factory floor
type Line struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Unit     string    `json:"unit,omitempty"`
	Floor    string    `json:"floor,omitempty"`
	IsActive bool      `json:"is_active"`
}

// WorkOrder represents a purchase order being produced
type WorkOrder struct {
	ID               uuid.UUID  `json:"id"`
	PONumber         string     `json:"po_number"`
	Buyer            string     `json:"buyer"`
	Style            string     `json:"style"`
	Item             string     `json:"item,omitempty"`
	OrderQty         int        `json:"order_qty"`
	Status           string     `json:"status"`
	PlannedExFactory *time.Time `json:"planned_ex_factory,omitempty"`
}

// SewingActual represents an end-of-day sewing output submission
type SewingActual struct {
	ID                  uuid.UUID  `json:"id"`
	LineID              uuid.UUID  `json:"line_id"`
	LineName            string     `json:"line_name"`
	WorkOrderID         *uuid.UUID `json:"work_order_id,omitempty"`
	PONumber            string     `json:"po_number,omitempty"`
	Buyer               string     `json:"buyer,omitempty"`
	Style               string     `json:"style,omitempty"`
	GoodOutput          int        `json:"good_output"`
	RejectQty           int        `json:"reject_qty"`
	ReworkQty           int        `json:"rework_qty"`
	Manpower            int        `json:"manpower"`
	CumulativeGoodTotal int        `json:"cumulative_good_total"`
	HasBlocker          bool       `json:"has_blocker"`
	BlockerDescription  string     `json:"blocker_description,omitempty"`
	ProductionDate      time.Time  `json:"production_date"`
	SubmittedAt         time.Time  `json:"submitted_at"`
}

// SewingTarget represents the morning target set for a line
type SewingTarget struct {
	ID              uuid.UUID  `json:"id"`
	LineID          uuid.UUID  `json:"line_id"`
	LineName        string     `json:"line_name"`
	WorkOrderID     *uuid.UUID `json:"work_order_id,omitempty"`
	PONumber        string     `json:"po_number,omitempty"`
	PerHourTarget   int        `json:"per_hour_target"`
	DayTarget       int        `json:"day_target"`
	PlannedManpower int        `json:"planned_manpower"`
	ProductionDate  time.Time  `json:"production_date"`
}

// Blocker represents an active production blocker reported by a line
type Blocker struct {
	ID             uuid.UUID `json:"id"`
	LineID         uuid.UUID `json:"line_id"`
	LineName       string    `json:"line_name"`
	PONumber       string    `json:"po_number,omitempty"`
	Description    string    `json:"description"`
	Impact         string    `json:"impact"` // "low", "medium", "high", "critical"
	Status         string    `json:"status"`
	ProductionDate time.Time `json:"production_date"`
	CreatedAt      time.Time `json:"created_at"`
}

// CuttingActual represents a cutting section submission
type CuttingActual struct {
	ID             uuid.UUID  `json:"id"`
	LineName       string     `json:"line_name,omitempty"`
	WorkOrderID    *uuid.UUID `json:"work_order_id,omitempty"`
	PONumber       string     `json:"po_number,omitempty"`
	Buyer          string     `json:"buyer,omitempty"`
	DayCutting     int        `json:"day_cutting"`
	TotalCutting   int        `json:"total_cutting"`
	DayInput       int        `json:"day_input"`
	TotalInput     int        `json:"total_input"`
	Balance        int        `json:"balance"`
	ProductionDate time.Time  `json:"production_date"`
}

// FinishingLog represents a finishing section output submission.
// CumulativeOutput is the running total reported by the line for the work order.
type FinishingLog struct {
	ID               uuid.UUID  `json:"id"`
	LineID           uuid.UUID  `json:"line_id"`
	LineName         string     `json:"line_name"`
	WorkOrderID      *uuid.UUID `json:"work_order_id,omitempty"`
	PONumber         string     `json:"po_number,omitempty"`
	Buyer            string     `json:"buyer,omitempty"`
	DayPoly          int        `json:"day_poly"`
	DayCarton        int        `json:"day_carton"`
	CumulativeOutput int        `json:"cumulative_output"`
	ProductionDate   time.Time  `json:"production_date"`
	SubmittedAt      time.Time  `json:"submitted_at"`
}

// StorageTransaction represents a bin card movement in the fabric store
type StorageTransaction struct {
	ID              uuid.UUID  `json:"id"`
	WorkOrderID     *uuid.UUID `json:"work_order_id,omitempty"`
	PONumber        string     `json:"po_number,omitempty"`
	Buyer           string     `json:"buyer,omitempty"`
	Description     string     `json:"description,omitempty"`
	ReceiveQty      int        `json:"receive_qty"`
	IssueQty        int        `json:"issue_qty"`
	BalanceQty      int        `json:"balance_qty"`
	TransactionDate time.Time  `json:"transaction_date"`
	CreatedAt       time.Time  `json:"created_at"`
}

// WorkOrderFilter narrows a work order lookup.
// Empty fields are ignored; ActiveOnly excludes shipped and cancelled orders.
type WorkOrderFilter struct {
	PONumber   string
	Buyer      string
	ActiveOnly bool
}
