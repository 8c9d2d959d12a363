package replenishment

import (
	"math"
	"sort"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/economics"
)

// Plan decides which records need reordering under policy. Deleted records are
// skipped; the result lists urgent suggestions first and otherwise keeps input order.
//
// The suggested quantity covers TargetDays of forward sales net of stock on hand.
// Lead time only enters through the reorder threshold, never the order size.
func Plan(records []domain.InventoryRecord, policy domain.PlanPolicy) []domain.ReplenishmentSuggestion {
	suggestions := make([]domain.ReplenishmentSuggestion, 0, len(records))

	for _, rec := range records {
		// 1. Skip soft-deleted records
		if rec.Deleted {
			continue
		}

		s := Evaluate(rec, policy)

		// 7. Keep only actionable rows
		if s.SuggestedQty > 0 || (s.IsUrgent && s.TargetDays > 0) {
			suggestions = append(suggestions, s)
		}
	}

	sortUrgentFirst(suggestions)

	return suggestions
}

func sortUrgentFirst(suggestions []domain.ReplenishmentSuggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].IsUrgent && !suggestions[j].IsUrgent
	})
}

// Evaluate computes the suggestion for a single record without filtering.
func Evaluate(rec domain.InventoryRecord, policy domain.PlanPolicy) domain.ReplenishmentSuggestion {
	// 2. Effective policy
	stage := ResolvePolicy(rec, policy)

	// 3. Threshold and current cover
	threshold := stage.LeadTimeDays + stage.SafetyStockDays
	current := economics.DaysOfSupply(rec)

	// 4. Urgency; a zero target means stop replenishing
	urgent := float64(current) < float64(threshold) && stage.TargetDays > 0

	// 5. Order up to target cover
	qty := 0
	if urgent && rec.DailySales > 0 {
		need := float64(stage.TargetDays)*rec.DailySales - float64(rec.Quantity)
		qty = int(math.Ceil(math.Max(0, need)))
	}

	// 6. Capital is priced in factory currency for the procurement sheet
	capital := float64(qty) * rec.UnitPriceCNY

	return domain.ReplenishmentSuggestion{
		SKU:                  rec.SKU,
		ProductName:          rec.ProductName,
		Lifecycle:            rec.Lifecycle,
		Quantity:             rec.Quantity,
		DailySales:           rec.DailySales,
		UnitPriceCNY:         rec.UnitPriceCNY,
		TargetDays:           stage.TargetDays,
		SafetyStockDays:      stage.SafetyStockDays,
		LeadTimeDays:         stage.LeadTimeDays,
		ReorderThresholdDays: threshold,
		CurrentDays:          current,
		IsUrgent:             urgent,
		SuggestedQty:         qty,
		EstimatedCapitalCNY:  capital,
		StrategyLabel:        stage.Label,
	}
}

// Summarize totals a plan.
func Summarize(suggestions []domain.ReplenishmentSuggestion) domain.PlanSummary {
	sum := domain.PlanSummary{Items: len(suggestions)}
	for _, s := range suggestions {
		if s.IsUrgent {
			sum.UrgentCount++
		}
		sum.TotalQty += s.SuggestedQty
		sum.TotalCapitalCNY += s.EstimatedCapitalCNY
	}
	return sum
}
