// backend-go/internal/repository/postgres/inventory_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/repository"
)

const inventoryColumns = `
	sku, product_name, quantity, daily_sales,
	unit_weight_kg, items_per_box, box_length_cm, box_width_cm, box_height_cm,
	unit_price_cny, shipping_unit_price_cny, material_cost_cny,
	sales_price_usd, last_mile_cost_usd, ad_cost_usd, platform_fee_rate, affiliate_commission_rate,
	lifecycle, lead_time_days, safety_stock_days, deleted, updated_at`

type inventoryRepository struct {
	db *DB
}

func NewInventoryRepository(db *DB) repository.InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) List(ctx context.Context, includeDeleted bool) ([]domain.InventoryRecord, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_records`
	if !includeDeleted {
		query += ` WHERE deleted = FALSE`
	}
	query += ` ORDER BY created_at, sku`

	var records []domain.InventoryRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to list inventory records: %w", err)
	}
	return records, nil
}

func (r *inventoryRepository) Get(ctx context.Context, sku string) (*domain.InventoryRecord, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_records WHERE sku = $1`

	var rec domain.InventoryRecord
	if err := r.db.GetContext(ctx, &rec, query, sku); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get inventory record %s: %w", sku, err)
	}
	return &rec, nil
}

func (r *inventoryRepository) Upsert(ctx context.Context, records ...domain.InventoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO inventory_records (
				sku, product_name, quantity, daily_sales,
				unit_weight_kg, items_per_box, box_length_cm, box_width_cm, box_height_cm,
				unit_price_cny, shipping_unit_price_cny, material_cost_cny,
				sales_price_usd, last_mile_cost_usd, ad_cost_usd, platform_fee_rate, affiliate_commission_rate,
				lifecycle, lead_time_days, safety_stock_days
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
				$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
			)
			ON CONFLICT (sku)
			DO UPDATE SET
				product_name = EXCLUDED.product_name,
				quantity = EXCLUDED.quantity,
				daily_sales = EXCLUDED.daily_sales,
				unit_weight_kg = EXCLUDED.unit_weight_kg,
				items_per_box = EXCLUDED.items_per_box,
				box_length_cm = EXCLUDED.box_length_cm,
				box_width_cm = EXCLUDED.box_width_cm,
				box_height_cm = EXCLUDED.box_height_cm,
				unit_price_cny = EXCLUDED.unit_price_cny,
				shipping_unit_price_cny = EXCLUDED.shipping_unit_price_cny,
				material_cost_cny = EXCLUDED.material_cost_cny,
				sales_price_usd = EXCLUDED.sales_price_usd,
				last_mile_cost_usd = EXCLUDED.last_mile_cost_usd,
				ad_cost_usd = EXCLUDED.ad_cost_usd,
				platform_fee_rate = EXCLUDED.platform_fee_rate,
				affiliate_commission_rate = EXCLUDED.affiliate_commission_rate,
				lifecycle = EXCLUDED.lifecycle,
				lead_time_days = EXCLUDED.lead_time_days,
				safety_stock_days = EXCLUDED.safety_stock_days,
				deleted = FALSE,
				updated_at = NOW()
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			_, err := stmt.ExecContext(
				ctx,
				rec.SKU,
				rec.ProductName,
				rec.Quantity,
				rec.DailySales,
				rec.UnitWeightKg,
				rec.ItemsPerBox,
				rec.BoxLengthCm,
				rec.BoxWidthCm,
				rec.BoxHeightCm,
				rec.UnitPriceCNY,
				rec.ShippingUnitPriceCNY,
				rec.MaterialCostCNY,
				rec.SalesPriceUSD,
				rec.LastMileCostUSD,
				rec.AdCostUSD,
				rec.PlatformFeeRate,
				rec.AffiliateCommissionRate,
				string(rec.Lifecycle),
				rec.LeadTimeDays,
				rec.SafetyStockDays,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert inventory record %s: %w", rec.SKU, err)
			}
		}

		return nil
	})
}

func (r *inventoryRepository) SoftDelete(ctx context.Context, sku string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE inventory_records SET deleted = TRUE, updated_at = NOW() WHERE sku = $1`, sku)
	if err != nil {
		return fmt.Errorf("failed to delete inventory record %s: %w", sku, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete inventory record %s: %w", sku, err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
