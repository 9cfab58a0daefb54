// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InterpretationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roadlog_interpretations_total",
		Help: "Transcripts interpreted, by registration type and outcome",
	}, []string{"registration_type", "outcome"})

	InterpretLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "roadlog_interpret_latency_seconds",
		Help:    "Time spent interpreting one transcript",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
	})

	ClassificationConfidence = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "roadlog_classification_confidence",
		Help:    "Classifier confidence per interpreted transcript",
		Buckets: []float64{0.4, 0.6, 0.7, 0.75, 0.8, 0.85, 0.9, 1},
	})

	FeedbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roadlog_classification_feedback_total",
		Help: "User verdicts on the classifier, by predicted type and whether it was correct",
	}, []string{"predicted_type", "correct"})

	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roadlog_events_total",
		Help: "NATS events handled, by subject and status",
	}, []string{"subject", "status"})

	DatabaseLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "roadlog_database_latency_seconds",
		Help:    "Latency of store operations",
		Buckets: prometheus.DefBuckets,
	})
)

// Outcome labels for InterpretationsTotal.
const (
	OutcomeComplete   = "complete"
	OutcomeIncomplete = "incomplete"
	OutcomeRawText    = "raw_text"
)
