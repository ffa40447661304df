package livedata

import (
	"context"
	"fmt"
	"strings"

	"floorchat-backend/models"

	"github.com/google/uuid"
)

// WorkOrderProgress is a work order with its sewing and finishing progress
// up to the as-of date.
type WorkOrderProgress struct {
	models.WorkOrder
	SewingOutput     int `json:"sewing_output"`
	SewingPercent    int `json:"sewing_percent"`
	FinishingOutput  int `json:"finishing_output"`
	FinishingPercent int `json:"finishing_percent"`
	RemainingQty     int `json:"remaining_qty"`
}

type workOrdersFetcher struct{ store ProductionStore }

func (f workOrdersFetcher) fetch(ctx context.Context, req request) (payload, error) {
	filter := req.workOrderFilter()
	orders, err := f.store.WorkOrders(ctx, req.factoryID, filter, req.limit)
	if err != nil {
		return payload{}, fmt.Errorf("failed to read work orders: %w", err)
	}

	// A buyer hint is a guess; when it matches nothing, show the active orders.
	var unmatched string
	if len(orders) == 0 && filter.PONumber == "" && filter.Buyer != "" {
		unmatched = noWorkOrders(filter)
		filter = models.WorkOrderFilter{ActiveOnly: true}
		orders, err = f.store.WorkOrders(ctx, req.factoryID, filter, req.limit)
		if err != nil {
			return payload{}, fmt.Errorf("failed to read active work orders: %w", err)
		}
		if len(orders) == 0 {
			return payload{summary: unmatched + "\n" + noWorkOrders(filter)}, nil
		}
	}
	if len(orders) == 0 {
		return payload{summary: noWorkOrders(filter)}, nil
	}

	ids := make([]uuid.UUID, 0, len(orders))
	for _, wo := range orders {
		ids = append(ids, wo.ID)
	}
	sewing, err := f.store.SewingActualsForWorkOrders(ctx, req.factoryID, ids, req.asOf, req.limit)
	if err != nil {
		return payload{}, fmt.Errorf("failed to read sewing progress: %w", err)
	}
	finishing, err := f.store.FinishingLogsForWorkOrders(ctx, req.factoryID, ids, req.asOf, req.limit)
	if err != nil {
		return payload{}, fmt.Errorf("failed to read finishing progress: %w", err)
	}
	sewn := CumulativeProgress(sewingObservations(sewing))
	finished := CumulativeProgress(finishingObservations(finishing))

	progress := make([]WorkOrderProgress, 0, len(orders))
	for _, wo := range orders {
		p := WorkOrderProgress{
			WorkOrder:       wo,
			SewingOutput:    sewn[wo.ID],
			FinishingOutput: finished[wo.ID],
		}
		p.SewingPercent = Achievement(p.SewingOutput, wo.OrderQty)
		p.FinishingPercent = Achievement(p.FinishingOutput, wo.OrderQty)
		if remaining := wo.OrderQty - p.FinishingOutput; remaining > 0 {
			p.RemainingQty = remaining
		}
		progress = append(progress, p)
	}

	var s summary
	if unmatched != "" {
		s.line("%s Showing active work orders instead.", unmatched)
	}
	s.line("Work orders (%s): %d as of %s.", describeFilter(filter), len(orders), req.date())
	for _, p := range progress {
		exFactory := "-"
		if p.PlannedExFactory != nil {
			exFactory = p.PlannedExFactory.Format(DateLayout)
		}
		s.item("%s | %s | style %s | order %s pcs | sewing %s (%d%%) | finishing %s (%d%%) | remaining %s | ex-factory %s | %s",
			p.PONumber, orDash(p.Buyer), orDash(p.Style), qty(p.OrderQty),
			qty(p.SewingOutput), p.SewingPercent,
			qty(p.FinishingOutput), p.FinishingPercent,
			qty(p.RemainingQty), exFactory, orDash(p.Status))
	}

	return payload{data: capRows(progress), summary: s.String()}, nil
}

func describeFilter(f models.WorkOrderFilter) string {
	var parts []string
	if f.PONumber != "" {
		parts = append(parts, f.PONumber)
	}
	if f.Buyer != "" {
		parts = append(parts, "buyer "+f.Buyer)
	}
	if len(parts) == 0 {
		return "active"
	}
	return strings.Join(parts, ", ")
}

func noWorkOrders(f models.WorkOrderFilter) string {
	if f.ActiveOnly {
		return "No active work orders found."
	}
	return fmt.Sprintf("No work orders match %s.", describeFilter(f))
}

type cuttingFetcher struct{ store ProductionStore }

func (f cuttingFetcher) fetch(ctx context.Context, req request) (payload, error) {
	rows, err := f.store.CuttingActuals(ctx, req.factoryID, req.asOf, req.limit)
	if err != nil {
		return payload{}, fmt.Errorf("failed to read cutting actuals: %w", err)
	}
	if len(rows) == 0 {
		return payload{summary: fmt.Sprintf("No cutting data has been submitted for %s yet.", req.date())}, nil
	}

	var dayCutting, dayInput int
	for _, r := range rows {
		dayCutting += r.DayCutting
		dayInput += r.DayInput
	}

	var s summary
	s.line("Cutting for %s: %d submissions.", req.date(), len(rows))
	s.line("Day cutting: %s pcs | Day input to sewing: %s pcs", qty(dayCutting), qty(dayInput))
	for _, r := range rows {
		s.item("%s (%s): cut today %s, total cut %s, input today %s, total input %s, balance %s",
			orDash(r.PONumber), orDash(r.Buyer), qty(r.DayCutting), qty(r.TotalCutting),
			qty(r.DayInput), qty(r.TotalInput), qty(r.Balance))
	}

	return payload{data: capRows(rows), summary: s.String()}, nil
}

type finishingFetcher struct{ store ProductionStore }

func (f finishingFetcher) fetch(ctx context.Context, req request) (payload, error) {
	logs, err := f.store.FinishingLogs(ctx, req.factoryID, req.asOf, req.limit)
	if err != nil {
		return payload{}, fmt.Errorf("failed to read finishing logs: %w", err)
	}
	if len(logs) == 0 {
		return payload{summary: fmt.Sprintf("No finishing data has been submitted for %s yet.", req.date())}, nil
	}

	var poly, carton int
	for _, l := range logs {
		poly += l.DayPoly
		carton += l.DayCarton
	}

	var s summary
	s.line("Finishing for %s: %d submissions.", req.date(), len(logs))
	s.line("Day poly: %s pcs | Day carton: %s", qty(poly), qty(carton))
	for _, l := range logs {
		s.item("%s %s (%s): poly %s, carton %s, cumulative %s",
			l.LineName, orDash(l.PONumber), orDash(l.Buyer), qty(l.DayPoly), qty(l.DayCarton), qty(l.CumulativeOutput))
	}

	return payload{data: capRows(logs), summary: s.String()}, nil
}

type storageFetcher struct{ store ProductionStore }

func (f storageFetcher) fetch(ctx context.Context, req request) (payload, error) {
	txns, err := f.store.StorageTransactions(ctx, req.factoryID, req.asOf, req.limit)
	if err != nil {
		return payload{}, fmt.Errorf("failed to read storage transactions: %w", err)
	}
	if len(txns) == 0 {
		return payload{summary: fmt.Sprintf("No storage transactions recorded for %s.", req.date())}, nil
	}

	var received, issued int
	type balance struct {
		po    string
		buyer string
		qty   int
		at    int
	}
	latest := make(map[string]*balance)
	var order []string
	for i, t := range txns {
		received += t.ReceiveQty
		issued += t.IssueQty
		key := orDash(t.PONumber)
		b, ok := latest[key]
		if !ok {
			b = &balance{po: key, buyer: t.Buyer, at: -1}
			latest[key] = b
			order = append(order, key)
		}
		if b.at < 0 || !t.CreatedAt.Before(txns[b.at].CreatedAt) {
			b.qty = t.BalanceQty
			b.at = i
		}
	}

	var s summary
	s.line("Storage for %s: %d transactions.", req.date(), len(txns))
	s.line("Received: %s | Issued: %s", qty(received), qty(issued))
	s.line("Latest balance per PO:")
	for _, key := range order {
		b := latest[key]
		s.item("%s (%s): %s", b.po, orDash(b.buyer), qty(b.qty))
	}

	return payload{data: capRows(txns), summary: s.String()}, nil
}
