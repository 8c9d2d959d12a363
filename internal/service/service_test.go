package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/economics"
	"github.com/andresuchdata/restock/backend-go/internal/export"
	"github.com/andresuchdata/restock/backend-go/internal/repository"
	"github.com/andresuchdata/restock/backend-go/internal/storage"
	"github.com/andresuchdata/restock/backend-go/pkg/metrics"
)

var fixedNow = time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

type planEntry struct {
	generation int64
	policy     domain.PlanPolicy
}

type memoryPlanCache struct {
	mu          sync.Mutex
	generation  int64
	plans       map[planEntry][]domain.ReplenishmentSuggestion
	gets        int
	hits        int
	invalidated int
}

func newMemoryPlanCache() *memoryPlanCache {
	return &memoryPlanCache{plans: make(map[planEntry][]domain.ReplenishmentSuggestion)}
}

func (c *memoryPlanCache) Generation(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, nil
}

func (c *memoryPlanCache) GetPlan(ctx context.Context, generation int64, policy domain.PlanPolicy) ([]domain.ReplenishmentSuggestion, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	plan, ok := c.plans[planEntry{generation, policy}]
	if ok {
		c.hits++
	}
	return plan, ok, nil
}

func (c *memoryPlanCache) SetPlan(ctx context.Context, generation int64, policy domain.PlanPolicy, plan []domain.ReplenishmentSuggestion) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans[planEntry{generation, policy}] = plan
	return nil
}

func (c *memoryPlanCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.plans = make(map[planEntry][]domain.ReplenishmentSuggestion)
	c.invalidated++
	return nil
}

type failingPlanCache struct{}

func (failingPlanCache) Generation(context.Context) (int64, error) {
	return 0, errors.New("redis down")
}

func (failingPlanCache) GetPlan(context.Context, int64, domain.PlanPolicy) ([]domain.ReplenishmentSuggestion, bool, error) {
	return nil, false, errors.New("redis down")
}

func (failingPlanCache) SetPlan(context.Context, int64, domain.PlanPolicy, []domain.ReplenishmentSuggestion) error {
	return errors.New("redis down")
}

func (failingPlanCache) InvalidateAll(context.Context) error { return errors.New("redis down") }

// writeDuringList runs onList once, after the snapshot is read but before the caller sees it.
type writeDuringList struct {
	repository.InventoryRepository
	onList func()
}

func (r *writeDuringList) List(ctx context.Context, includeDeleted bool) ([]domain.InventoryRecord, error) {
	records, err := r.InventoryRepository.List(ctx, includeDeleted)
	if fn := r.onList; fn != nil {
		r.onList = nil
		fn()
	}
	return records, err
}

type memoryObjects struct {
	objects map[string][]byte
	types   map[string]string
}

func (m *memoryObjects) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (m *memoryObjects) DownloadObject(ctx context.Context, key, destPath string) error {
	return errors.New("not supported")
}

func (m *memoryObjects) UploadObject(ctx context.Context, key string, data []byte, contentType string) error {
	if m.objects == nil {
		m.objects = make(map[string][]byte)
		m.types = make(map[string]string)
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func intPtr(v int) *int { return &v }

func seed(t *testing.T) *repository.MemoryInventoryRepository {
	t.Helper()
	repo := repository.NewMemoryInventoryRepository()
	require.NoError(t, repo.Upsert(context.Background(),
		// 10 days of cover, threshold 45: urgent, 90*10-100 = 800
		domain.InventoryRecord{SKU: "A", ProductName: "Lamp", Quantity: 100, DailySales: 10, UnitPriceCNY: 5,
			Lifecycle: domain.LifecycleStable, LeadTimeDays: intPtr(30), SafetyStockDays: intPtr(15)},
		// 100 days of cover: not urgent
		domain.InventoryRecord{SKU: "B", Quantity: 1000, DailySales: 10, UnitPriceCNY: 2, Lifecycle: domain.LifecycleStable},
		// no sales
		domain.InventoryRecord{SKU: "C", Quantity: 5, Lifecycle: domain.LifecycleNew},
	))
	return repo
}

func manual(days int) domain.PlanPolicy {
	return domain.PlanPolicy{BaseTargetDays: days}
}

func TestInventoryServiceListBuildsViews(t *testing.T) {
	svc := NewInventoryService(seed(t), nil, economics.NewCalculator(7), time.UTC)
	svc.now = func() time.Time { return fixedNow }

	views, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, views, 3)

	assert.Equal(t, "A", views[0].Record.SKU)
	assert.Equal(t, domain.Days(10), views[0].DaysOfSupply)
	require.NotNil(t, views[0].StockoutDate)
	assert.Equal(t, "2024-03-20", views[0].StockoutDate.Format("2006-01-02"))

	assert.True(t, views[2].DaysOfSupply.IsInfinite())
	assert.Nil(t, views[2].StockoutDate)
}

func TestInventoryServiceUpsertValidatesAndInvalidates(t *testing.T) {
	c := newMemoryPlanCache()
	svc := NewInventoryService(repository.NewMemoryInventoryRepository(), c, economics.NewCalculator(7), nil)

	_, err := svc.Upsert(context.Background(), domain.InventoryRecord{SKU: "X", Quantity: -1})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Zero(t, c.invalidated)

	view, err := svc.Upsert(context.Background(), domain.InventoryRecord{SKU: "X", Quantity: 4, Lifecycle: "growth"})
	require.NoError(t, err)
	assert.Equal(t, domain.LifecycleGrowth, view.Record.Lifecycle)
	assert.Equal(t, 1, c.invalidated)
}

func TestInventoryServiceDelete(t *testing.T) {
	c := newMemoryPlanCache()
	svc := NewInventoryService(seed(t), c, economics.NewCalculator(7), nil)

	require.NoError(t, svc.Delete(context.Background(), "A"))
	assert.Equal(t, 1, c.invalidated)
	assert.ErrorIs(t, svc.Delete(context.Background(), "missing"), repository.ErrNotFound)

	views, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestInventoryServiceImport(t *testing.T) {
	repo := repository.NewMemoryInventoryRepository()
	c := newMemoryPlanCache()
	svc := NewInventoryService(repo, c, economics.NewCalculator(7), nil)
	svc.now = func() time.Time { return fixedNow }

	body := "sku,name,qty,daily sales\nA,Lamp,10,1\n,Nameless,1,1\n"
	res, err := svc.Import(context.Background(), "stock.csv", strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 3, res.Rejected[0].Line)
	assert.Equal(t, fixedNow, res.ProcessedAt)
	assert.Equal(t, 1, c.invalidated)

	list, err := repo.List(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.Import(context.Background(), "stock.pdf", strings.NewReader(""))
	assert.Error(t, err)
}

func TestReplenishmentServicePlanUsesCache(t *testing.T) {
	c := newMemoryPlanCache()
	reg := prometheus.NewRegistry()
	svc := NewReplenishmentService(seed(t), c, metrics.NewPlannerMetrics(reg), nil)

	plan, err := svc.Plan(context.Background(), manual(90))
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "A", plan[0].SKU)
	assert.Equal(t, 800, plan[0].SuggestedQty)
	assert.Equal(t, 4000.0, plan[0].EstimatedCapitalCNY)

	again, err := svc.Plan(context.Background(), manual(90))
	require.NoError(t, err)
	assert.Equal(t, plan, again)
	assert.Equal(t, 2, c.gets)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var runs float64
	for _, mf := range mfs {
		if mf.GetName() == "restock_plan_runs_total" {
			for _, m := range mf.GetMetric() {
				runs += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, runs)
}

func planSKUs(plan []domain.ReplenishmentSuggestion) []string {
	skus := make([]string, 0, len(plan))
	for _, s := range plan {
		skus = append(skus, s.SKU)
	}
	return skus
}

func TestReplenishmentServicePlanReflectsWrites(t *testing.T) {
	ctx := context.Background()
	repo := seed(t)
	c := newMemoryPlanCache()
	inventory := NewInventoryService(repo, c, economics.NewCalculator(7), nil)
	svc := NewReplenishmentService(repo, c, nil, nil)

	plan, err := svc.Plan(ctx, manual(90))
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, planSKUs(plan))

	_, err = inventory.Upsert(ctx, domain.InventoryRecord{SKU: "D", Quantity: 1, DailySales: 5, UnitPriceCNY: 1})
	require.NoError(t, err)

	plan, err = svc.Plan(ctx, manual(90))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "D"}, planSKUs(plan))
}

func TestReplenishmentServiceWriteDuringPlanIsNotCached(t *testing.T) {
	ctx := context.Background()
	base := seed(t)
	c := newMemoryPlanCache()
	inventory := NewInventoryService(base, c, economics.NewCalculator(7), nil)

	repo := &writeDuringList{InventoryRepository: base}
	repo.onList = func() {
		_, err := inventory.Upsert(ctx, domain.InventoryRecord{SKU: "D", Quantity: 1, DailySales: 5, UnitPriceCNY: 1})
		require.NoError(t, err)
	}
	svc := NewReplenishmentService(repo, c, nil, nil)

	// computed from the snapshot taken before the write
	plan, err := svc.Plan(ctx, manual(90))
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, planSKUs(plan))

	plan, err = svc.Plan(ctx, manual(90))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "D"}, planSKUs(plan))
	assert.Zero(t, c.hits)
}

func TestInventoryServiceStoreInvalidates(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryInventoryRepository()
	c := newMemoryPlanCache()
	svc := NewInventoryService(repo, c, economics.NewCalculator(7), nil)

	require.NoError(t, svc.Store(ctx))
	assert.Zero(t, c.invalidated)

	require.NoError(t, svc.Store(ctx, domain.InventoryRecord{SKU: "A", Quantity: 1}, domain.InventoryRecord{SKU: "B"}))
	assert.Equal(t, 1, c.invalidated)

	list, err := repo.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestReplenishmentServiceCacheFailureDegrades(t *testing.T) {
	svc := NewReplenishmentService(seed(t), failingPlanCache{}, nil, nil)

	plan, err := svc.Plan(context.Background(), manual(90))
	require.NoError(t, err)
	assert.Len(t, plan, 1)
}

func TestReplenishmentServiceExportCSV(t *testing.T) {
	svc := NewReplenishmentService(seed(t), nil, nil, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), manual(90), export.FormatCSV, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"A", "Lamp", "800", "5.00", "4000.00", "Manual (90d)",
		"urgent: 10.0 days cover < 45 days threshold"}, rows[1])
}

func TestReplenishmentServicePublish(t *testing.T) {
	objects := &memoryObjects{}
	svc := NewReplenishmentService(seed(t), nil, nil, objects)
	svc.now = func() time.Time { return fixedNow }

	published, err := svc.Publish(context.Background(), manual(90), export.FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "exports/procurement_20240310_153000.xlsx", published.Key)
	assert.Equal(t, len(objects.objects[published.Key]), published.Size)
	assert.Equal(t, export.FormatXLSX.ContentType(), objects.types[published.Key])
}

func TestReplenishmentServicePublishWithoutStorage(t *testing.T) {
	svc := NewReplenishmentService(seed(t), nil, nil, nil)

	_, err := svc.Publish(context.Background(), manual(90), export.FormatCSV)
	assert.ErrorIs(t, err, ErrStorageNotConfigured)
}

func TestForecastServiceStockouts(t *testing.T) {
	svc := NewForecastService(seed(t), 30, time.UTC)
	svc.now = func() time.Time { return fixedNow }

	days, err := svc.Stockouts(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2024-03-20", days[0].Date)
	assert.Equal(t, []string{"A"}, days[0].SKUs)

	days, err = svc.Stockouts(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, days)
	assert.Empty(t, days)
}
