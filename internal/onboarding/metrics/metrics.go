// Package metrics exposes the onboarding workflow's Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts the workflow events operators alert on: token issue and
// rejection rates, provisioning outcomes, and which step degraded runs.
type Metrics struct {
	TokensIssued    *prometheus.CounterVec
	TokensRejected  prometheus.Counter
	Runs            *prometheus.CounterVec
	StepFailures    *prometheus.CounterVec
	RunDuration     prometheus.Histogram
}

// Run outcome label values.
const (
	OutcomeOnboarded = "onboarded"
	OutcomeDegraded  = "degraded"
	OutcomeFailed    = "failed"
)

// Step label values for StepFailures.
const (
	StepDirectory = "directory"
	StepPMS       = "pms"
	StepPersist   = "persist"
	StepNotesKey  = "notes_key"
	StepEmail     = "email"
)

func New() *Metrics {
	return &Metrics{
		TokensIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "meridian_onboarding_tokens_issued_total",
			Help: "Single-use tokens issued, by purpose.",
		}, []string{"purpose"}),
		TokensRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meridian_onboarding_tokens_rejected_total",
			Help: "Token presentations rejected as invalid, expired, or used.",
		}),
		Runs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "meridian_onboarding_runs_total",
			Help: "Provisioning runs by outcome.",
		}, []string{"outcome"}),
		StepFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "meridian_onboarding_step_failures_total",
			Help: "Provisioning step failures, by step.",
		}, []string{"step"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "meridian_onboarding_run_duration_seconds",
			Help:    "Wall-clock duration of provisioning runs.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
