package domain

// PlanPolicy holds the global inputs of a replenishment pass.
type PlanPolicy struct {
	BaseTargetDays    int  `json:"base_target_days"`
	UseSmartLifecycle bool `json:"use_smart_lifecycle"`
}

// StagePolicy is the fully resolved policy applied to one record.
type StagePolicy struct {
	TargetDays      int    `json:"target_days"`
	SafetyStockDays int    `json:"safety_stock_days"`
	LeadTimeDays    int    `json:"lead_time_days"`
	Label           string `json:"label"`
}

// ReplenishmentSuggestion is the planner's verdict for one record.
type ReplenishmentSuggestion struct {
	SKU          string    `json:"sku"`
	ProductName  string    `json:"product_name"`
	Lifecycle    Lifecycle `json:"lifecycle"`
	Quantity     int       `json:"quantity"`
	DailySales   float64   `json:"daily_sales"`
	UnitPriceCNY float64   `json:"unit_price_cny"`

	TargetDays           int     `json:"target_days"`
	SafetyStockDays      int     `json:"safety_stock_days"`
	LeadTimeDays         int     `json:"lead_time_days"`
	ReorderThresholdDays int     `json:"reorder_threshold_days"`
	CurrentDays          Days    `json:"current_days"`
	IsUrgent             bool    `json:"is_urgent"`
	SuggestedQty         int     `json:"suggested_qty"`
	EstimatedCapitalCNY  float64 `json:"estimated_capital_cny"` // factory currency
	StrategyLabel        string  `json:"strategy_label"`
}

// StockoutDay groups the SKUs projected to run out on one calendar day.
type StockoutDay struct {
	Date string   `json:"date"` // YYYY-MM-DD
	SKUs []string `json:"skus"`
}

// PlanSummary aggregates a plan for dashboards.
type PlanSummary struct {
	Items           int     `json:"items"`
	UrgentCount     int     `json:"urgent_count"`
	TotalQty        int     `json:"total_qty"`
	TotalCapitalCNY float64 `json:"total_capital_cny"`
}
