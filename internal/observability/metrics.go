// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Acquisition metrics
	CandidatesEvaluated prometheus.Counter
	CandidatesRejected  *prometheus.CounterVec // by stage: curating, enriching, profit_gating, committing
	EntriesCommitted    prometheus.Counter
	FallbackCommits     prometheus.Counter
	StrategiesRequeued  prometheus.Counter
	StrategiesDropped   prometheus.Counter
	BountyMatches       prometheus.Counter

	// Lifecycle metrics
	LifecycleChecks   *prometheus.CounterVec // by outcome: gone, price_changed, unchanged, error
	EntriesArchived   prometheus.Counter
	EntriesPurged     prometheus.Counter
	NotificationsSent *prometheus.CounterVec // by kind: price_drop, bounty_match

	// Job metrics
	JobRunsTotal *prometheus.CounterVec // by job, status
	JobDuration  *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulAcquisition prometheus.Gauge
	LastSuccessfulLifecycle   prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "bike_curation"
	}

	return &Metrics{
		CandidatesEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acquisition",
			Name:      "candidates_evaluated_total",
			Help:      "Total number of candidates pulled into an acquisition run",
		}),
		CandidatesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acquisition",
			Name:      "candidates_rejected_total",
			Help:      "Total number of candidates rejected, by pipeline stage",
		}, []string{"stage"}),
		EntriesCommitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acquisition",
			Name:      "entries_committed_total",
			Help:      "Total number of catalog entries committed",
		}),
		FallbackCommits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acquisition",
			Name:      "fallback_commits_total",
			Help:      "Total number of entries committed from a synthesized fallback record",
		}),
		StrategiesRequeued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acquisition",
			Name:      "strategies_requeued_total",
			Help:      "Total number of strategies requeued at decayed priority",
		}),
		StrategiesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acquisition",
			Name:      "strategies_dropped_total",
			Help:      "Total number of zero-yield strategies dropped",
		}),
		BountyMatches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acquisition",
			Name:      "bounty_matches_total",
			Help:      "Total number of committed entries matching an open bounty",
		}),

		LifecycleChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "checks_total",
			Help:      "Total number of lifecycle re-checks, by outcome",
		}, []string{"outcome"}),
		EntriesArchived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "entries_archived_total",
			Help:      "Total number of entries archived after a deletion marker",
		}),
		EntriesPurged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "entries_purged_total",
			Help:      "Total number of archived entries hard-deleted by the sanitizer",
		}),
		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "notifications_sent_total",
			Help:      "Total number of notifications sent, by kind",
		}, []string{"kind"}),

		JobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Total number of job runs, by job and status",
		}, []string{"job", "status"}),
		JobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Job run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"job"}),

		LastSuccessfulAcquisition: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_acquisition_timestamp",
			Help:      "Unix timestamp of the last successful acquisition run",
		}),
		LastSuccessfulLifecycle: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_lifecycle_timestamp",
			Help:      "Unix timestamp of the last successful lifecycle run",
		}),
	}
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
