package livedata

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"floorchat-backend/intent"
	"floorchat-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeStore serves fixed rows; a non-nil err field fails that read.
type fakeStore struct {
	mu sync.Mutex

	actuals   []models.SewingActual
	targets   []models.SewingTarget
	blockers  []models.Blocker
	orders    []models.WorkOrder
	woSewing  []models.SewingActual
	woFinish  []models.FinishingLog
	cutting   []models.CuttingActual
	finishing []models.FinishingLog
	storage   []models.StorageTransaction
	lines     []models.Line

	blockersErr  error
	cuttingPanic bool
	// missBuyer makes every buyer-filtered work order read come back empty.
	missBuyer bool

	lastFilter models.WorkOrderFilter
	filters    []models.WorkOrderFilter
	lastDate   time.Time
}

func (f *fakeStore) SewingActuals(_ context.Context, _ uuid.UUID, date time.Time, _ int) ([]models.SewingActual, error) {
	f.mu.Lock()
	f.lastDate = date
	f.mu.Unlock()
	return f.actuals, nil
}

func (f *fakeStore) SewingTargets(context.Context, uuid.UUID, time.Time, int) ([]models.SewingTarget, error) {
	return f.targets, nil
}

func (f *fakeStore) ActiveBlockers(context.Context, uuid.UUID, time.Time, int) ([]models.Blocker, error) {
	if f.blockersErr != nil {
		return nil, f.blockersErr
	}
	return f.blockers, nil
}

func (f *fakeStore) WorkOrders(_ context.Context, _ uuid.UUID, filter models.WorkOrderFilter, _ int) ([]models.WorkOrder, error) {
	f.mu.Lock()
	f.lastFilter = filter
	f.filters = append(f.filters, filter)
	f.mu.Unlock()
	if f.missBuyer && filter.Buyer != "" {
		return nil, nil
	}
	return f.orders, nil
}

func (f *fakeStore) SewingActualsForWorkOrders(context.Context, uuid.UUID, []uuid.UUID, time.Time, int) ([]models.SewingActual, error) {
	return f.woSewing, nil
}

func (f *fakeStore) FinishingLogsForWorkOrders(context.Context, uuid.UUID, []uuid.UUID, time.Time, int) ([]models.FinishingLog, error) {
	return f.woFinish, nil
}

func (f *fakeStore) CuttingActuals(context.Context, uuid.UUID, time.Time, int) ([]models.CuttingActual, error) {
	if f.cuttingPanic {
		panic("cutting table exploded")
	}
	return f.cutting, nil
}

func (f *fakeStore) FinishingLogs(context.Context, uuid.UUID, time.Time, int) ([]models.FinishingLog, error) {
	return f.finishing, nil
}

func (f *fakeStore) StorageTransactions(context.Context, uuid.UUID, time.Time, int) ([]models.StorageTransaction, error) {
	return f.storage, nil
}

func (f *fakeStore) ActiveLines(context.Context, uuid.UUID, int) ([]models.Line, error) {
	return f.lines, nil
}

var fixedNow = time.Date(2026, 3, 9, 20, 30, 0, 0, time.UTC)

func newTestAggregator(store ProductionStore) *Aggregator {
	return NewAggregator(store, WithClock(func() time.Time { return fixedNow }))
}

func factoryScope() Scope {
	id := uuid.New()
	return Scope{FactoryID: &id}
}

func TestFetch_NoFactoryReturnsNil(t *testing.T) {
	a := newTestAggregator(&fakeStore{})
	assert.Nil(t, a.Fetch(context.Background(), Scope{}, "how is sewing going"))
}

func TestFetch_AppendsBaselineWithoutDuplicates(t *testing.T) {
	a := newTestAggregator(&fakeStore{})
	c := a.Fetch(context.Background(), factoryScope(), "any blockers on work orders?")
	require.NotNil(t, c)

	assert.Equal(t, []string{"blockers", "work-orders", "factory-summary", "lines"}, c.Categories())
}

func TestFetch_SingleCategoryFailureIsIsolated(t *testing.T) {
	line := uuid.New()
	store := &fakeStore{
		blockersErr: errors.New("connection reset"),
		actuals: []models.SewingActual{
			{LineID: line, LineName: "Line 1", GoodOutput: 800},
		},
		targets: []models.SewingTarget{
			{LineID: line, LineName: "Line 1", DayTarget: 1000},
		},
	}
	a := newTestAggregator(store)

	c := a.FetchClassified(context.Background(), factoryScope(), intent.Classification{
		Categories: []intent.Category{intent.SewingOutput, intent.SewingTargets, intent.Blockers},
	})
	require.NotNil(t, c)

	blockers, ok := c.Result(intent.Blockers)
	require.True(t, ok)
	assert.True(t, blockers.Failed())
	assert.Equal(t, "connection reset", blockers.Error)
	assert.Empty(t, blockers.Data)
	assert.Contains(t, blockers.Summary, "unavailable")

	output, ok := c.Result(intent.SewingOutput)
	require.True(t, ok)
	assert.False(t, output.Failed())
	assert.Len(t, output.Data, 1)

	targets, ok := c.Result(intent.SewingTargets)
	require.True(t, ok)
	assert.False(t, targets.Failed())
	assert.Contains(t, targets.Summary, "Achievement: 80%")

	assert.True(t, c.HasEvidence())
}

func TestFetch_PanickingFetcherYieldsErroredResult(t *testing.T) {
	a := newTestAggregator(&fakeStore{cuttingPanic: true})

	c := a.Fetch(context.Background(), factoryScope(), "cutting today")
	require.NotNil(t, c)

	cutting, ok := c.Result(intent.Cutting)
	require.True(t, ok)
	assert.True(t, cutting.Failed())
	assert.Contains(t, cutting.Error, "cutting table exploded")
	assert.Len(t, c.Results, 4)
}

func TestFetch_EmptyResultsAreNotEvidence(t *testing.T) {
	a := newTestAggregator(&fakeStore{})

	c := a.Fetch(context.Background(), factoryScope(), "sewing output")
	require.NotNil(t, c)

	out, ok := c.Result(intent.SewingOutput)
	require.True(t, ok)
	assert.True(t, out.Empty())
	assert.Contains(t, out.Summary, "No sewing output has been submitted for 2026-03-09")
	assert.False(t, c.HasEvidence())
}

func TestFetch_AsOfDateUsesFactoryTimezone(t *testing.T) {
	store := &fakeStore{}
	a := newTestAggregator(store)
	scope := factoryScope()
	scope.Timezone = "Asia/Dhaka"

	c := a.Fetch(context.Background(), scope, "sewing output")
	require.NotNil(t, c)

	// 20:30 UTC is already the next day in Dhaka (UTC+6).
	assert.Equal(t, "2026-03-10", c.AsOfDate)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), store.lastDate)
}

func TestAsOfDate_InvalidZoneFallsBackToUTC(t *testing.T) {
	got := AsOfDate(fixedNow, "Mars/Olympus")
	assert.Equal(t, "2026-03-09", got.Format(DateLayout))
}

func TestFetch_WorkOrderFilterFromHints(t *testing.T) {
	store := &fakeStore{}
	a := newTestAggregator(store)

	a.Fetch(context.Background(), factoryScope(), "How far is PO-123 from C&A?")
	assert.Equal(t, models.WorkOrderFilter{PONumber: "PO-123", Buyer: "C&A"}, store.lastFilter)

	a.Fetch(context.Background(), factoryScope(), "sewing output")
	assert.Equal(t, models.WorkOrderFilter{ActiveOnly: true}, store.lastFilter)

	a.Fetch(context.Background(), factoryScope(), "Did we hit our target?")
	assert.Equal(t, models.WorkOrderFilter{ActiveOnly: true}, store.lastFilter)
}

func TestFetch_UnmatchedBuyerFallsBackToActiveOrders(t *testing.T) {
	store := &fakeStore{
		missBuyer: true,
		orders: []models.WorkOrder{
			{ID: uuid.New(), PONumber: "PO-200", Buyer: "Zara", Style: "ZT-1", OrderQty: 2000, Status: "in_production"},
		},
	}
	a := newTestAggregator(store)

	c := a.Fetch(context.Background(), factoryScope(), "How is H&M doing?")
	require.NotNil(t, c)

	assert.Equal(t, []models.WorkOrderFilter{{Buyer: "H&M"}, {ActiveOnly: true}}, store.filters)
	res, ok := c.Result(intent.WorkOrders)
	require.True(t, ok)
	assert.Len(t, res.Data, 1)
	assert.True(t, strings.HasPrefix(res.Summary,
		"No work orders match buyer H&M. Showing active work orders instead.\nWork orders (active): 1 as of 2026-03-09."),
		res.Summary)
}

func TestFetch_UnmatchedBuyerWithNoActiveOrders(t *testing.T) {
	store := &fakeStore{missBuyer: true}
	a := newTestAggregator(store)

	c := a.Fetch(context.Background(), factoryScope(), "How is H&M doing?")
	require.NotNil(t, c)

	res, _ := c.Result(intent.WorkOrders)
	assert.True(t, res.Empty())
	assert.Equal(t, "No work orders match buyer H&M.\nNo active work orders found.", res.Summary)
}

func TestFetch_UnmatchedPONumberDoesNotFallBack(t *testing.T) {
	store := &fakeStore{}
	a := newTestAggregator(store)

	c := a.Fetch(context.Background(), factoryScope(), "How far is PO-999?")
	require.NotNil(t, c)

	assert.Equal(t, []models.WorkOrderFilter{{PONumber: "PO-999"}}, store.filters)
	res, _ := c.Result(intent.WorkOrders)
	assert.Equal(t, "No work orders match PO-999.", res.Summary)
}

func TestFetch_FinishingResubmissionCountsOnce(t *testing.T) {
	wo := uuid.New()
	line := uuid.New()
	store := &fakeStore{
		orders: []models.WorkOrder{
			{ID: wo, PONumber: "PO-123", Buyer: "C&A", OrderQty: 1000, Status: "in_production"},
		},
		woFinish: []models.FinishingLog{
			{LineID: line, WorkOrderID: &wo, CumulativeOutput: 300},
			{LineID: line, WorkOrderID: &wo, CumulativeOutput: 300},
		},
	}
	a := newTestAggregator(store)

	c := a.Fetch(context.Background(), factoryScope(), "How far is PO-123 from C&A?")
	require.NotNil(t, c)

	res, ok := c.Result(intent.WorkOrders)
	require.True(t, ok)
	require.Len(t, res.Data, 1)

	p, ok := res.Data[0].(WorkOrderProgress)
	require.True(t, ok)
	assert.Equal(t, 300, p.FinishingOutput)
	assert.Equal(t, 30, p.FinishingPercent)
	assert.Equal(t, 700, p.RemainingQty)
	assert.Contains(t, res.Summary, "finishing 300 (30%)")
}

func TestFetch_DataIsCapped(t *testing.T) {
	line := uuid.New()
	actuals := make([]models.SewingActual, MaxDataRows+20)
	for i := range actuals {
		actuals[i] = models.SewingActual{LineID: line, LineName: "Line 1", GoodOutput: 10}
	}
	a := newTestAggregator(&fakeStore{actuals: actuals})

	c := a.Fetch(context.Background(), factoryScope(), "sewing output")
	require.NotNil(t, c)

	out, _ := c.Result(intent.SewingOutput)
	assert.Len(t, out.Data, MaxDataRows)
	assert.Contains(t, out.Summary, "Total good output: 700 pcs")
}

func TestContext_HasEvidenceNilSafe(t *testing.T) {
	var c *Context
	assert.False(t, c.HasEvidence())
	assert.Nil(t, c.Categories())
}

func TestFetcherFor_CoversEveryCategory(t *testing.T) {
	for _, cat := range intent.All() {
		f, err := fetcherFor(&fakeStore{}, cat)
		require.NoError(t, err, cat)
		assert.NotNil(t, f)
	}
	_, err := fetcherFor(&fakeStore{}, intent.Category("payroll"))
	assert.Error(t, err)
}
