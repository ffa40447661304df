// Package livedata fetches the factory's live production records for the
// categories a question touches and condenses each into a standalone summary.
package livedata

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata"

	"floorchat-backend/intent"
	"floorchat-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DateLayout is the format of Context.AsOfDate.
const DateLayout = "2006-01-02"

// baseline categories are appended to every request so the assistant always
// sees the factory's overall state.
var baseline = []intent.Category{intent.FactorySummary, intent.WorkOrders, intent.Lines}

// Scope identifies whose data is read.
type Scope struct {
	FactoryID *uuid.UUID
	Timezone  string
}

// Aggregator fans a request out to one fetcher per category.
type Aggregator struct {
	store    ProductionStore
	logger   *zap.Logger
	now      func() time.Time
	rowLimit int
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithLogger sets the logger used for degraded fetches
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock overrides the clock used to derive the as-of date
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithRowLimit overrides QueryRowLimit
func WithRowLimit(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.rowLimit = n
		}
	}
}

// NewAggregator creates an Aggregator reading from store
func NewAggregator(store ProductionStore, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:    store,
		logger:   zap.NewNop(),
		now:      time.Now,
		rowLimit: QueryRowLimit,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fetch classifies message and fetches every matching category.
func (a *Aggregator) Fetch(ctx context.Context, scope Scope, message string) *Context {
	return a.FetchClassified(ctx, scope, intent.Classify(message))
}

// FetchClassified fetches the categories of an existing classification plus
// the baseline categories. It returns nil only when the scope has no factory.
// Individual category failures are reported inside their Result.
func (a *Aggregator) FetchClassified(ctx context.Context, scope Scope, c intent.Classification) *Context {
	if scope.FactoryID == nil {
		return nil
	}

	asOf := AsOfDate(a.now(), scope.Timezone)
	req := request{
		factoryID:      *scope.FactoryID,
		asOf:           asOf,
		classification: c,
		limit:          a.rowLimit,
	}

	categories := ResolveCategories(c)
	results := make([]Result, len(categories))

	var g errgroup.Group
	for i, cat := range categories {
		i, cat := i, cat
		g.Go(func() error {
			results[i] = a.run(ctx, cat, req)
			return nil
		})
	}
	_ = g.Wait()

	return &Context{
		Results:  results,
		AsOfDate: asOf.Format(DateLayout),
	}
}

// run executes one fetcher, converting errors and panics into a failed Result.
func (a *Aggregator) run(ctx context.Context, cat intent.Category, req request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			a.logger.Error("live data fetch panicked",
				zap.String("category", string(cat)),
				zap.Error(err))
			res = failedResult(cat, err, a.now())
		}
	}()

	f, err := fetcherFor(a.store, cat)
	if err != nil {
		return failedResult(cat, err, a.now())
	}

	p, err := f.fetch(ctx, req)
	if err != nil {
		a.logger.Warn("live data fetch failed",
			zap.String("category", string(cat)),
			zap.String("factory_id", req.factoryID.String()),
			zap.Error(err))
		return failedResult(cat, err, a.now())
	}

	data := p.data
	if data == nil {
		data = []any{}
	}
	if len(data) > MaxDataRows {
		data = data[:MaxDataRows]
	}
	return Result{
		Category:  cat,
		Label:     cat.Label(),
		Data:      data,
		Summary:   p.summary,
		FetchedAt: a.now(),
	}
}

// ResolveCategories returns the classified categories followed by the
// baseline categories, without duplicates.
func ResolveCategories(c intent.Classification) []intent.Category {
	out := make([]intent.Category, 0, len(c.Categories)+len(baseline))
	seen := make(map[intent.Category]bool)
	for _, list := range [][]intent.Category{c.Categories, baseline} {
		for _, cat := range list {
			if seen[cat] {
				continue
			}
			seen[cat] = true
			out = append(out, cat)
		}
	}
	return out
}

// AsOfDate returns the calendar date of now in the named timezone, as a
// midnight UTC time. Unknown or empty zones fall back to UTC.
func AsOfDate(now time.Time, timezone string) time.Time {
	loc := time.UTC
	if timezone != "" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// request is what every fetcher receives.
type request struct {
	factoryID      uuid.UUID
	asOf           time.Time
	classification intent.Classification
	limit          int
}

func (r request) date() string {
	return r.asOf.Format(DateLayout)
}

func (r request) workOrderFilter() models.WorkOrderFilter {
	c := r.classification
	if c.PONumberHint == "" && c.BuyerHint == "" {
		return models.WorkOrderFilter{ActiveOnly: true}
	}
	return models.WorkOrderFilter{PONumber: c.PONumberHint, Buyer: c.BuyerHint}
}

// payload is a fetcher's successful output.
type payload struct {
	data    []any
	summary string
}

type fetcher interface {
	fetch(ctx context.Context, req request) (payload, error)
}

// fetcherFor maps every category to its fetcher.
func fetcherFor(store ProductionStore, cat intent.Category) (fetcher, error) {
	switch cat {
	case intent.SewingOutput:
		return sewingOutputFetcher{store}, nil
	case intent.SewingTargets:
		return sewingTargetsFetcher{store}, nil
	case intent.Blockers:
		return blockersFetcher{store}, nil
	case intent.WorkOrders:
		return workOrdersFetcher{store}, nil
	case intent.Cutting:
		return cuttingFetcher{store}, nil
	case intent.Finishing:
		return finishingFetcher{store}, nil
	case intent.Storage:
		return storageFetcher{store}, nil
	case intent.Lines:
		return linesFetcher{store}, nil
	case intent.FactorySummary:
		return factorySummaryFetcher{store}, nil
	}
	return nil, fmt.Errorf("unknown category %q", cat)
}
