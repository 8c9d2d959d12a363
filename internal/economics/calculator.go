package economics

import (
	"math"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

// Calculator computes per-unit landed cost and profitability for inventory records.
// It is stateless apart from the exchange rate and safe for concurrent use.
type Calculator struct {
	exchangeRate float64 // CNY per USD
}

// NewCalculator creates a calculator that converts CNY amounts at exchangeRate CNY per USD.
func NewCalculator(exchangeRate float64) *Calculator {
	return &Calculator{exchangeRate: exchangeRate}
}

// ExchangeRate returns the CNY-per-USD rate the calculator converts with.
func (c *Calculator) ExchangeRate() float64 {
	return c.exchangeRate
}

// Calculate derives the unit economics of a record. Every division is guarded;
// malformed inputs flow through uncorrected.
func (c *Calculator) Calculate(rec domain.InventoryRecord) domain.CalculatedMetrics {
	m := domain.CalculatedMetrics{}
	qty := float64(rec.Quantity)

	// 1. Total shipment weight
	m.TotalWeightKg = qty * rec.UnitWeightKg

	// 2. Cartons, with items per box clamped to at least one
	itemsPerBox := SafeItemsPerBox(rec.ItemsPerBox)
	m.TotalCartons = int(math.Ceil(qty / float64(itemsPerBox)))

	// 3. Volume in cubic metres
	m.SingleBoxVolumeCbm = (rec.BoxLengthCm * rec.BoxWidthCm * rec.BoxHeightCm) / 1_000_000
	m.TotalVolumeCbm = m.SingleBoxVolumeCbm * float64(m.TotalCartons)

	// 4. Weight of one full carton
	m.SingleBoxWeightKg = rec.UnitWeightKg * float64(itemsPerBox)

	// 5. First-leg freight, priced on actual weight only (no volumetric comparison)
	m.FirstLegCostCNY = m.TotalWeightKg*rec.ShippingUnitPriceCNY + rec.MaterialCostCNY

	// 6. Convert to USD
	m.FirstLegCostUSD = m.FirstLegCostCNY / c.exchangeRate

	// 7. Head-haul per unit
	if rec.Quantity > 0 {
		m.SingleHeadHaulCostUSD = m.FirstLegCostUSD / qty
	}

	// 8. Factory cost per unit
	m.ProductCostUSD = rec.UnitPriceCNY / c.exchangeRate

	// 9. Marketplace percentages
	m.PlatformFeeUSD = rec.SalesPriceUSD * rec.PlatformFeeRate / 100
	m.AffiliateCommissionUSD = rec.SalesPriceUSD * rec.AffiliateCommissionRate / 100

	// 10. Landed cost
	m.TotalCostPerUnitUSD = m.ProductCostUSD +
		m.SingleHeadHaulCostUSD +
		rec.LastMileCostUSD +
		rec.AdCostUSD +
		m.PlatformFeeUSD +
		m.AffiliateCommissionUSD

	// 11. Profit
	m.EstimatedProfitUSD = rec.SalesPriceUSD - m.TotalCostPerUnitUSD

	// 12. Margin on sales price
	if rec.SalesPriceUSD > 0 {
		m.MarginRate = m.EstimatedProfitUSD / rec.SalesPriceUSD * 100
	}

	// 13. Return on landed cost
	if m.TotalCostPerUnitUSD > 0 {
		m.ROI = m.EstimatedProfitUSD / m.TotalCostPerUnitUSD * 100
	}

	return m
}

// DaysOfSupply is how long current stock lasts at the current sell-through.
// Records that are not selling return domain.NoDepletion.
func DaysOfSupply(rec domain.InventoryRecord) domain.Days {
	if rec.DailySales > 0 {
		return domain.Days(float64(rec.Quantity) / rec.DailySales)
	}
	return domain.NoDepletion
}

// SafeItemsPerBox clamps a carton size to at least one item.
func SafeItemsPerBox(itemsPerBox int) int {
	return max(itemsPerBox, 1)
}
