package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/restock/backend-go/internal/cache"
	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/economics"
	"github.com/andresuchdata/restock/backend-go/internal/forecast"
	"github.com/andresuchdata/restock/backend-go/internal/ingest"
	"github.com/andresuchdata/restock/backend-go/internal/repository"
)

type InventoryService struct {
	repo  repository.InventoryRepository
	cache cache.PlanCache
	calc  *economics.Calculator
	loc   *time.Location
	now   func() time.Time
}

func NewInventoryService(repo repository.InventoryRepository, cacheImpl cache.PlanCache, calc *economics.Calculator, loc *time.Location) *InventoryService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopPlanCache()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &InventoryService{repo: repo, cache: cacheImpl, calc: calc, loc: loc, now: time.Now}
}

// List returns every record with its metrics and stockout projection.
func (s *InventoryService) List(ctx context.Context, includeDeleted bool) ([]domain.RecordView, error) {
	records, err := s.repo.List(ctx, includeDeleted)
	if err != nil {
		return nil, err
	}

	today := s.now().In(s.loc)
	views := make([]domain.RecordView, 0, len(records))
	for _, rec := range records {
		views = append(views, s.view(rec, today))
	}
	return views, nil
}

func (s *InventoryService) Get(ctx context.Context, sku string) (*domain.RecordView, error) {
	rec, err := s.repo.Get(ctx, sku)
	if err != nil {
		return nil, err
	}
	view := s.view(*rec, s.now().In(s.loc))
	return &view, nil
}

// Upsert validates and stores rec, then drops cached plans.
func (s *InventoryService) Upsert(ctx context.Context, rec domain.InventoryRecord) (*domain.RecordView, error) {
	rec.Lifecycle = domain.ParseLifecycle(string(rec.Lifecycle))
	if err := ingest.Validate(rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	if err := s.repo.Upsert(ctx, rec); err != nil {
		return nil, err
	}
	s.invalidatePlans(ctx)

	return s.Get(ctx, rec.SKU)
}

func (s *InventoryService) Delete(ctx context.Context, sku string) error {
	if err := s.repo.SoftDelete(ctx, sku); err != nil {
		return err
	}
	s.invalidatePlans(ctx)
	return nil
}

// Store upserts records that were already validated, e.g. by ingest, then drops cached plans.
func (s *InventoryService) Store(ctx context.Context, records ...domain.InventoryRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.repo.Upsert(ctx, records...); err != nil {
		return err
	}
	s.invalidatePlans(ctx)
	return nil
}

// Import stores the valid rows of a CSV or XLSX upload; invalid rows are reported, not stored.
func (s *InventoryService) Import(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error) {
	parsed, err := ingest.Read(r, filename)
	if err != nil {
		return nil, err
	}

	if err := s.Store(ctx, parsed.Records...); err != nil {
		return nil, fmt.Errorf("failed to store imported records: %w", err)
	}

	log.Info().
		Str("file", filename).
		Int("imported", len(parsed.Records)).
		Int("rejected", len(parsed.Errors)).
		Msg("inventory import finished")

	return &domain.ImportResult{
		Filename:    filename,
		Imported:    len(parsed.Records),
		Rejected:    parsed.Rejected(),
		ProcessedAt: s.now(),
	}, nil
}

func (s *InventoryService) view(rec domain.InventoryRecord, today time.Time) domain.RecordView {
	return domain.RecordView{
		Record:       rec,
		Metrics:      s.calc.Calculate(rec),
		DaysOfSupply: economics.DaysOfSupply(rec),
		StockoutDate: forecast.StockoutDate(rec, today),
	}
}

func (s *InventoryService) invalidatePlans(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("inventory: cache invalidate plans failed")
	}
}
