// Package metrics exposes prometheus collectors for pipeline runs. The
// collectors are process-wide: every concurrent run reports into the same
// registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyboard_pipeline_runs_total",
		Help: "Completed pipeline runs by terminal status.",
	}, []string{"status"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storyboard_stage_duration_seconds",
		Help:    "Wall time per pipeline stage.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"stage"})

	validationFindings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyboard_validation_findings_total",
		Help: "Validation findings by severity.",
	}, []string{"severity"})

	correctionIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storyboard_correction_iterations",
		Help:    "Correction loop iterations per run.",
		Buckets: []float64{0, 1, 2, 3},
	})
)

// Run terminal statuses.
const (
	StatusSuccess  = "success"
	StatusDegraded = "degraded"
	StatusFailed   = "failed"
)

// RunCompleted counts one finished run.
func RunCompleted(status string) {
	runsTotal.WithLabelValues(status).Inc()
}

// ObserveStage records the wall time of one stage execution.
func ObserveStage(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ReportFindings counts the findings of one validation pass.
func ReportFindings(errors, warnings, criticals int) {
	validationFindings.WithLabelValues("error").Add(float64(errors))
	validationFindings.WithLabelValues("warning").Add(float64(warnings))
	validationFindings.WithLabelValues("critical").Add(float64(criticals))
}

// ObserveIterations records how many correction iterations a run needed.
func ObserveIterations(n int) {
	correctionIterations.Observe(float64(n))
}
