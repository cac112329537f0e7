// Package observability exposes Prometheus metrics for the query pipeline.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	questionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paceline",
		Subsystem: "pipeline",
		Name:      "questions_total",
		Help:      "Questions handled, labeled by outcome (ok or error kind).",
	}, []string{"outcome"})

	stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "paceline",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Wall time spent in each pipeline stage.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})
)

func init() {
	prometheus.MustRegister(questionsTotal, stageDuration)
}

// RecordQuestion counts one handled question by outcome.
func RecordQuestion(outcome string) {
	questionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveStage records the duration of one pipeline stage.
func ObserveStage(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
