// backend-go/internal/repository/inventory_repository.go
package repository

import (
	"context"
	"errors"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

// ErrNotFound is returned when no live or deleted record has the requested SKU.
var ErrNotFound = errors.New("inventory record not found")

// InventoryRepository stores inventory records keyed by SKU.
// List returns records in a stable order so planner output is reproducible.
type InventoryRepository interface {
	List(ctx context.Context, includeDeleted bool) ([]domain.InventoryRecord, error)
	Get(ctx context.Context, sku string) (*domain.InventoryRecord, error)
	Upsert(ctx context.Context, records ...domain.InventoryRecord) error
	SoftDelete(ctx context.Context, sku string) error
}
