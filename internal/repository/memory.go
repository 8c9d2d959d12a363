package repository

import (
	"context"
	"sync"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

// MemoryInventoryRepository keeps records in insertion order. Safe for concurrent use.
type MemoryInventoryRepository struct {
	mu    sync.RWMutex
	order []string
	items map[string]domain.InventoryRecord
	now   func() time.Time
}

func NewMemoryInventoryRepository() *MemoryInventoryRepository {
	return &MemoryInventoryRepository{
		items: make(map[string]domain.InventoryRecord),
		now:   time.Now,
	}
}

func (r *MemoryInventoryRepository) List(ctx context.Context, includeDeleted bool) ([]domain.InventoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.InventoryRecord, 0, len(r.order))
	for _, sku := range r.order {
		rec := r.items[sku]
		if rec.Deleted && !includeDeleted {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *MemoryInventoryRepository) Get(ctx context.Context, sku string) (*domain.InventoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.items[sku]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// Upsert replaces records by SKU. An upserted record is live again even if it was deleted.
func (r *MemoryInventoryRepository) Upsert(ctx context.Context, records ...domain.InventoryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for _, rec := range records {
		if _, ok := r.items[rec.SKU]; !ok {
			r.order = append(r.order, rec.SKU)
		}
		rec.Deleted = false
		rec.UpdatedAt = now
		r.items[rec.SKU] = rec
	}
	return nil
}

func (r *MemoryInventoryRepository) SoftDelete(ctx context.Context, sku string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.items[sku]
	if !ok {
		return ErrNotFound
	}
	rec.Deleted = true
	rec.UpdatedAt = r.now()
	r.items[sku] = rec
	return nil
}
