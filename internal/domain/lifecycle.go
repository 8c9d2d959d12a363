package domain

import "strings"

// Lifecycle is the merchandising phase of a SKU.
type Lifecycle string

const (
	LifecycleNew       Lifecycle = "New"
	LifecycleGrowth    Lifecycle = "Growth"
	LifecycleStable    Lifecycle = "Stable"
	LifecycleClearance Lifecycle = "Clearance"
)

var lifecycleCodes = map[string]Lifecycle{
	"new":       LifecycleNew,
	"growth":    LifecycleGrowth,
	"stable":    LifecycleStable,
	"clearance": LifecycleClearance,
}

// ParseLifecycle returns the lifecycle for a label (case-insensitive).
// Empty or unknown labels resolve to LifecycleNew.
func ParseLifecycle(label string) Lifecycle {
	if lc, ok := lifecycleCodes[strings.ToLower(strings.TrimSpace(label))]; ok {
		return lc
	}

	return LifecycleNew
}

// Valid reports whether l is one of the four known stages.
func (l Lifecycle) Valid() bool {
	switch l {
	case LifecycleNew, LifecycleGrowth, LifecycleStable, LifecycleClearance:
		return true
	}
	return false
}

// Lifecycles lists the known stages in display order.
func Lifecycles() []Lifecycle {
	return []Lifecycle{LifecycleNew, LifecycleGrowth, LifecycleStable, LifecycleClearance}
}
