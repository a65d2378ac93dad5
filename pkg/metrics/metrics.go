// Package metrics exposes Prometheus metrics for solves and reconciles.
//
// Metrics:
//   - coverage_weeks_built_total: weekly schedules built
//   - coverage_assignments_total{status}: records produced, by status
//   - coverage_reconcile_events_total{type,outcome}: change events handled
//   - coverage_build_errors_total{kind}: builds rejected (invalid grid, invalid week, ...)
//   - coverage_solve_duration_seconds: wall time of a weekly build
//   - coverage_last_fairness_score: fairness score of the last build
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arnavshah/coverage-scheduler-go/pkg/models"
)

// Collector holds the scheduler's Prometheus metrics
type Collector struct {
	weeksBuilt    prometheus.Counter
	assignments   *prometheus.CounterVec
	reconciles    *prometheus.CounterVec
	buildErrors   *prometheus.CounterVec
	solveDuration prometheus.Histogram
	fairness      prometheus.Gauge
}

// NewCollector creates the metrics and registers them on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		weeksBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coverage_weeks_built_total",
			Help: "Total number of weekly schedules built",
		}),
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coverage_assignments_total",
			Help: "Total number of assignment records produced, by status",
		}, []string{"status"}),
		reconciles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coverage_reconcile_events_total",
			Help: "Total number of change events reconciled, by type and outcome",
		}, []string{"type", "outcome"}),
		buildErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coverage_build_errors_total",
			Help: "Total number of rejected weekly builds, by kind",
		}, []string{"kind"}),
		solveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coverage_solve_duration_seconds",
			Help:    "Weekly build latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		fairness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coverage_last_fairness_score",
			Help: "Fairness score (0-100) of the most recent build",
		}),
	}

	reg.MustRegister(c.weeksBuilt, c.assignments, c.reconciles, c.buildErrors, c.solveDuration, c.fairness)
	return c
}

// RecordWeek counts a built week and its records
func (c *Collector) RecordWeek(week *models.WeeklySchedule, seconds float64) {
	c.weeksBuilt.Inc()
	c.solveDuration.Observe(seconds)
	c.fairness.Set(week.FairnessScore)
	for _, d := range week.Days {
		for _, a := range d.Assignments {
			c.assignments.WithLabelValues(string(a.Status)).Inc()
		}
	}
}

// RecordBuildError counts a rejected build
func (c *Collector) RecordBuildError(kind string) {
	c.buildErrors.WithLabelValues(kind).Inc()
}

// RecordReconcile counts a handled change event
func (c *Collector) RecordReconcile(eventType models.EventType, outcome string) {
	c.reconciles.WithLabelValues(string(eventType), outcome).Inc()
}

// RecordDiff counts records a reconcile produced
func (c *Collector) RecordDiff(diff *models.ScheduleDiff) {
	for _, a := range diff.Added {
		c.assignments.WithLabelValues(string(a.Status)).Inc()
	}
	for _, a := range diff.NewlyUnfilled {
		c.assignments.WithLabelValues(string(a.Status)).Inc()
	}
}
