// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CurriculumBuilds counts build requests by result.
	CurriculumBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "learnly_curriculum_builds_total",
		Help: "Curriculum builds by result",
	}, []string{"result"})

	// CurriculumBuildDuration tracks end-to-end build latency, generation included.
	CurriculumBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "learnly_curriculum_build_duration_seconds",
		Help:    "Curriculum build duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
	})

	ResourceSearchDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "learnly_resource_search_degraded_total",
		Help: "Builds that continued without searched resources",
	})

	// ProgressEvents counts delta events by kind.
	ProgressEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "learnly_progress_events_total",
		Help: "Progress events by kind",
	}, []string{"kind"})

	XPAwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "learnly_xp_awarded_total",
		Help: "XP awarded across all learners",
	})

	QuizzesGraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "learnly_quizzes_graded_total",
		Help: "Graded quiz submissions by outcome",
	}, []string{"outcome"})

	RealtimeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "learnly_realtime_connections",
		Help: "Open progress event streams",
	})
)
