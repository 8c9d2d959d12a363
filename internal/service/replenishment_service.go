package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/restock/backend-go/internal/cache"
	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/export"
	"github.com/andresuchdata/restock/backend-go/internal/replenishment"
	"github.com/andresuchdata/restock/backend-go/internal/repository"
	"github.com/andresuchdata/restock/backend-go/internal/storage"
	"github.com/andresuchdata/restock/backend-go/pkg/metrics"
)

const exportKeyPrefix = "exports/procurement_"

// PublishedExport describes an export uploaded to object storage.
type PublishedExport struct {
	Key         string    `json:"key"`
	Size        int       `json:"size"`
	ContentType string    `json:"content_type"`
	PublishedAt time.Time `json:"published_at"`
}

type ReplenishmentService struct {
	repo    repository.InventoryRepository
	cache   cache.PlanCache
	metrics *metrics.PlannerMetrics
	storage storage.ObjectStorage
	now     func() time.Time
}

// NewReplenishmentService wires the planner. objects may be nil, which disables Publish.
func NewReplenishmentService(repo repository.InventoryRepository, cacheImpl cache.PlanCache, m *metrics.PlannerMetrics, objects storage.ObjectStorage) *ReplenishmentService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopPlanCache()
	}
	return &ReplenishmentService{repo: repo, cache: cacheImpl, metrics: m, storage: objects, now: time.Now}
}

// Plan returns the replenishment plan for the live records under policy.
func (s *ReplenishmentService) Plan(ctx context.Context, policy domain.PlanPolicy) ([]domain.ReplenishmentSuggestion, error) {
	start := time.Now()
	mode := policyMode(policy)

	// the generation is read before the records so a concurrent write retires this plan
	generation, err := s.cache.Generation(ctx)
	cacheable := err == nil
	if err != nil {
		log.Warn().Err(err).Msg("replenishment: cache get generation failed")
	}

	if cacheable {
		if plan, ok, err := s.cache.GetPlan(ctx, generation, policy); err == nil && ok {
			s.observe(mode, metrics.SourceCache, start, plan)
			return plan, nil
		} else if err != nil {
			log.Warn().Err(err).Msg("replenishment: cache get plan failed")
		}
	}

	records, err := s.repo.List(ctx, false)
	if err != nil {
		s.metrics.IncFailure(mode)
		return nil, err
	}

	plan := replenishment.Plan(records, policy)

	if cacheable {
		if err := s.cache.SetPlan(ctx, generation, policy, plan); err != nil {
			log.Warn().Err(err).Msg("replenishment: cache set plan failed")
		}
	}

	s.observe(mode, metrics.SourceCompute, start, plan)
	return plan, nil
}

// Export writes the procurement sheet for policy in format.
func (s *ReplenishmentService) Export(ctx context.Context, policy domain.PlanPolicy, format export.Format, w io.Writer) error {
	plan, err := s.Plan(ctx, policy)
	if err != nil {
		return err
	}
	return export.Write(w, format, plan)
}

// Publish uploads the procurement sheet to object storage under a timestamped key.
func (s *ReplenishmentService) Publish(ctx context.Context, policy domain.PlanPolicy, format export.Format) (*PublishedExport, error) {
	if s.storage == nil {
		return nil, ErrStorageNotConfigured
	}

	var buf bytes.Buffer
	if err := s.Export(ctx, policy, format, &buf); err != nil {
		return nil, err
	}

	now := s.now()
	key := ExportKey(now, format)
	if err := s.storage.UploadObject(ctx, key, buf.Bytes(), format.ContentType()); err != nil {
		return nil, fmt.Errorf("failed to publish export: %w", err)
	}

	log.Info().Str("key", key).Int("bytes", buf.Len()).Msg("procurement export published")

	return &PublishedExport{
		Key:         key,
		Size:        buf.Len(),
		ContentType: format.ContentType(),
		PublishedAt: now,
	}, nil
}

// ExportKey names an export object, e.g. exports/procurement_20240310_153000.csv.
func ExportKey(at time.Time, format export.Format) string {
	return fmt.Sprintf("%s%s.%s", exportKeyPrefix, at.Format("20060102_150405"), format)
}

func (s *ReplenishmentService) observe(mode, source string, start time.Time, plan []domain.ReplenishmentSuggestion) {
	summary := replenishment.Summarize(plan)
	s.metrics.ObserveRun(mode, source, time.Since(start), summary.UrgentCount, summary.TotalCapitalCNY)
}

func policyMode(policy domain.PlanPolicy) string {
	if policy.UseSmartLifecycle {
		return "smart"
	}
	return "manual"
}
