package service

import (
	"context"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/forecast"
	"github.com/andresuchdata/restock/backend-go/internal/repository"
)

type ForecastService struct {
	repo           repository.InventoryRepository
	defaultHorizon int
	loc            *time.Location
	now            func() time.Time
}

func NewForecastService(repo repository.InventoryRepository, defaultHorizon int, loc *time.Location) *ForecastService {
	if loc == nil {
		loc = time.UTC
	}
	return &ForecastService{repo: repo, defaultHorizon: defaultHorizon, loc: loc, now: time.Now}
}

// Stockouts returns live records grouped by projected stockout day. horizonDays <= 0 uses the default.
func (s *ForecastService) Stockouts(ctx context.Context, horizonDays int) ([]domain.StockoutDay, error) {
	if horizonDays <= 0 {
		horizonDays = s.defaultHorizon
	}

	records, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, err
	}

	days := forecast.Calendar(records, s.now().In(s.loc), horizonDays)
	if days == nil {
		days = make([]domain.StockoutDay, 0)
	}
	return days, nil
}
