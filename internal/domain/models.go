// backend-go/internal/domain/models.go
package domain

import "time"

// InventoryRecord is one SKU's stock, cost and policy inputs.
// Currency is fixed per field: *CNY fields are factory-side amounts, *USD fields are marketplace-side.
type InventoryRecord struct {
	SKU         string `json:"sku" db:"sku" validate:"required,max=64"`
	ProductName string `json:"product_name" db:"product_name"`

	Quantity   int     `json:"quantity" db:"quantity" validate:"gte=0"`
	DailySales float64 `json:"daily_sales" db:"daily_sales" validate:"gte=0"`

	UnitWeightKg float64 `json:"unit_weight_kg" db:"unit_weight_kg" validate:"gte=0"`
	ItemsPerBox  int     `json:"items_per_box" db:"items_per_box"`
	BoxLengthCm  float64 `json:"box_length_cm" db:"box_length_cm" validate:"gte=0"`
	BoxWidthCm   float64 `json:"box_width_cm" db:"box_width_cm" validate:"gte=0"`
	BoxHeightCm  float64 `json:"box_height_cm" db:"box_height_cm" validate:"gte=0"`

	UnitPriceCNY         float64 `json:"unit_price_cny" db:"unit_price_cny" validate:"gte=0"`
	ShippingUnitPriceCNY float64 `json:"shipping_unit_price_cny" db:"shipping_unit_price_cny" validate:"gte=0"` // freight per kg
	MaterialCostCNY      float64 `json:"material_cost_cny" db:"material_cost_cny" validate:"gte=0"`             // whole shipment

	SalesPriceUSD           float64 `json:"sales_price_usd" db:"sales_price_usd" validate:"gte=0"`
	LastMileCostUSD         float64 `json:"last_mile_cost_usd" db:"last_mile_cost_usd" validate:"gte=0"`
	AdCostUSD               float64 `json:"ad_cost_usd" db:"ad_cost_usd" validate:"gte=0"`
	PlatformFeeRate         float64 `json:"platform_fee_rate" db:"platform_fee_rate" validate:"gte=0,lte=100"`                 // percent
	AffiliateCommissionRate float64 `json:"affiliate_commission_rate" db:"affiliate_commission_rate" validate:"gte=0,lte=100"` // percent

	Lifecycle Lifecycle `json:"lifecycle" db:"lifecycle"`

	// Optional policy overrides; nil means the planner default applies.
	LeadTimeDays    *int `json:"lead_time_days,omitempty" db:"lead_time_days" validate:"omitempty,gte=0"`
	SafetyStockDays *int `json:"safety_stock_days,omitempty" db:"safety_stock_days" validate:"omitempty,gte=0"`

	Deleted   bool      `json:"deleted" db:"deleted"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CalculatedMetrics holds the unit economics derived from one InventoryRecord.
// Never persisted.
type CalculatedMetrics struct {
	TotalWeightKg          float64 `json:"total_weight_kg"`
	TotalCartons           int     `json:"total_cartons"`
	SingleBoxVolumeCbm     float64 `json:"single_box_volume_cbm"`
	TotalVolumeCbm         float64 `json:"total_volume_cbm"`
	SingleBoxWeightKg      float64 `json:"single_box_weight_kg"`
	FirstLegCostCNY        float64 `json:"first_leg_cost_cny"`
	FirstLegCostUSD        float64 `json:"first_leg_cost_usd"`
	SingleHeadHaulCostUSD  float64 `json:"single_head_haul_cost_usd"`
	ProductCostUSD         float64 `json:"product_cost_usd"`
	PlatformFeeUSD         float64 `json:"platform_fee_usd"`
	AffiliateCommissionUSD float64 `json:"affiliate_commission_usd"`
	TotalCostPerUnitUSD    float64 `json:"total_cost_per_unit_usd"`
	EstimatedProfitUSD     float64 `json:"estimated_profit_usd"`
	MarginRate             float64 `json:"margin_rate"` // percent
	ROI                    float64 `json:"roi"`         // percent
}

// RecordView is a record together with everything derived from it for display.
type RecordView struct {
	Record       InventoryRecord   `json:"record"`
	Metrics      CalculatedMetrics `json:"metrics"`
	DaysOfSupply Days              `json:"days_of_supply"`
	StockoutDate *time.Time        `json:"stockout_date"`
}

// ImportResult summarises a spreadsheet import.
type ImportResult struct {
	Filename    string        `json:"filename"`
	Imported    int           `json:"imported"`
	Rejected    []RowRejected `json:"rejected"`
	ProcessedAt time.Time     `json:"processed_at"`
}

// RowRejected describes an input row that failed validation.
type RowRejected struct {
	Line   int    `json:"line"`
	SKU    string `json:"sku"`
	Reason string `json:"reason"`
}
