package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	SourceCache   = "cache"
	SourceCompute = "compute"
)

// PlannerMetrics records replenishment planning runs.
type PlannerMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	urgent   *prometheus.GaugeVec
	capital  *prometheus.GaugeVec
}

// NewPlannerMetrics registers the planner metrics on the provided registerer.
// A nil registerer yields a recorder that drops everything.
func NewPlannerMetrics(reg prometheus.Registerer) *PlannerMetrics {
	if reg == nil {
		return &PlannerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "restock_plan_duration_seconds",
		Help:    "Duration of replenishment plan requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode", "source"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "restock_plan_runs_total",
		Help: "Replenishment plans served, by policy mode and source.",
	}, []string{"mode", "source"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "restock_plan_failures_total",
		Help: "Replenishment plan requests that failed to load records.",
	}, []string{"mode"})
	urgent := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "restock_plan_urgent_skus",
		Help: "Urgent SKUs in the most recent plan.",
	}, []string{"mode"})
	capital := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "restock_plan_capital_cny",
		Help: "Estimated purchase capital of the most recent plan, in CNY.",
	}, []string{"mode"})
	reg.MustRegister(duration, runs, failures, urgent, capital)
	return &PlannerMetrics{
		duration: duration,
		runs:     runs,
		failures: failures,
		urgent:   urgent,
		capital:  capital,
	}
}

// ObserveRun records one served plan.
func (m *PlannerMetrics) ObserveRun(mode, source string, duration time.Duration, urgentSKUs int, capitalCNY float64) {
	if m == nil || m.runs == nil {
		return
	}
	mode, source = normalizeLabel(mode), normalizeLabel(source)
	m.duration.WithLabelValues(mode, source).Observe(duration.Seconds())
	m.runs.WithLabelValues(mode, source).Inc()
	m.urgent.WithLabelValues(mode).Set(float64(urgentSKUs))
	m.capital.WithLabelValues(mode).Set(capitalCNY)
}

// IncFailure increments the failure counter for the mode.
func (m *PlannerMetrics) IncFailure(mode string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(mode)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
