package replenishment

import (
	"fmt"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

const (
	DefaultLeadTimeDays    = 30
	DefaultSafetyStockDays = 15

	manualLabel  = "Manual"
	defaultLabel = "Standard"
)

// stageParams is one row of the lifecycle policy table.
type stageParams struct {
	TargetDays      int
	SafetyStockDays int
	Label           string
}

// lifecycleTable drives smart-lifecycle mode. Clearance targets zero days so it is never replenished.
var lifecycleTable = map[domain.Lifecycle]stageParams{
	domain.LifecycleNew:       {TargetDays: 45, SafetyStockDays: 15, Label: "New Launch"},
	domain.LifecycleGrowth:    {TargetDays: 90, SafetyStockDays: 30, Label: "Growth Push"},
	domain.LifecycleStable:    {TargetDays: 60, SafetyStockDays: 20, Label: "Steady Replenish"},
	domain.LifecycleClearance: {TargetDays: 0, SafetyStockDays: 0, Label: "Clearance Stop"},
}

// StageDefaults returns the smart-lifecycle parameters for a stage. Stages outside
// the table fall back to the base target with the default safety stock.
func StageDefaults(stage domain.Lifecycle, baseTargetDays int) (targetDays, safetyStockDays int, label string) {
	if p, ok := lifecycleTable[stage]; ok {
		return p.TargetDays, p.SafetyStockDays, p.Label
	}
	return baseTargetDays, DefaultSafetyStockDays, defaultLabel
}

// ResolvePolicy produces the effective policy for a record before any arithmetic runs.
// A missing lifecycle counts as New; unrecognised labels use the base target.
func ResolvePolicy(rec domain.InventoryRecord, policy domain.PlanPolicy) domain.StagePolicy {
	resolved := domain.StagePolicy{LeadTimeDays: DefaultLeadTimeDays}
	if rec.LeadTimeDays != nil {
		resolved.LeadTimeDays = *rec.LeadTimeDays
	}

	if policy.UseSmartLifecycle {
		stage := rec.Lifecycle
		if stage == "" {
			stage = domain.LifecycleNew
		}
		resolved.TargetDays, resolved.SafetyStockDays, resolved.Label = StageDefaults(stage, policy.BaseTargetDays)
		return resolved
	}

	resolved.TargetDays = policy.BaseTargetDays
	resolved.SafetyStockDays = DefaultSafetyStockDays
	if rec.SafetyStockDays != nil {
		resolved.SafetyStockDays = *rec.SafetyStockDays
	}
	resolved.Label = fmt.Sprintf("%s (%dd)", manualLabel, policy.BaseTargetDays)
	return resolved
}
