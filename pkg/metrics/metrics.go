// Package metrics provides Prometheus metrics for the match service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MatchRunsTotal tracks match runs by mode and status
	MatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sda_match",
			Subsystem: "engine",
			Name:      "runs_total",
			Help:      "Total number of match runs by mode and status",
		},
		[]string{"mode", "status"},
	)

	// MatchRunDuration tracks match run duration in seconds
	MatchRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sda_match",
			Subsystem: "engine",
			Name:      "run_duration_seconds",
			Help:      "Duration of match runs in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"mode"},
	)

	// MatchesPersisted tracks matches written by score band
	MatchesPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sda_match",
			Subsystem: "engine",
			Name:      "matches_persisted_total",
			Help:      "Total number of matches persisted by score band",
		},
		[]string{"band"},
	)

	// PairsScored tracks participant/property pairs evaluated
	PairsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sda_match",
			Subsystem: "engine",
			Name:      "pairs_scored_total",
			Help:      "Total number of participant property pairs scored",
		},
	)

	// NotificationsTotal tracks excellent-match notifications by status
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sda_match",
			Subsystem: "notifications",
			Name:      "sent_total",
			Help:      "Total number of excellent match notifications by status",
		},
		[]string{"status"},
	)
)

// Score bands for persisted matches
const (
	BandExcellent = "excellent"
	BandGood      = "good"
	BandFair      = "fair"
)

// RecordMatchRun records a completed match run
func RecordMatchRun(mode, status string, durationSeconds float64) {
	MatchRunsTotal.WithLabelValues(mode, status).Inc()
	MatchRunDuration.WithLabelValues(mode).Observe(durationSeconds)
}

// RecordMatchPersisted records one persisted match in its score band
func RecordMatchPersisted(band string) {
	MatchesPersisted.WithLabelValues(band).Inc()
}

// RecordNotification records a notification attempt
func RecordNotification(status string) {
	NotificationsTotal.WithLabelValues(status).Inc()
}
