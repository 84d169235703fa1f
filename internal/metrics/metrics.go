package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IndicatorStatus tracks the latest status severity per indicator
	// (0 green, 1 unknown, 2 yellow, 3 red)
	IndicatorStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slmhealth_indicator_status",
			Help: "Latest status severity of a health indicator",
		},
		[]string{"indicator"},
	)

	// IndicatorEvaluations tracks indicator evaluations by resulting status
	IndicatorEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slmhealth_indicator_evaluations_total",
			Help: "Total number of indicator evaluations",
		},
		[]string{"indicator", "status"},
	)

	// IndicatorErrors tracks evaluations that could not obtain their input
	IndicatorErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slmhealth_indicator_errors_total",
			Help: "Total number of indicator evaluations that failed to obtain state",
		},
		[]string{"indicator"},
	)

	// IndicatorLatency tracks indicator evaluation latency
	IndicatorLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slmhealth_indicator_latency_seconds",
			Help:    "Indicator evaluation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"indicator"},
	)

	// PoliciesConfigured tracks the number of configured snapshot lifecycle policies
	PoliciesConfigured = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slmhealth_policies_configured",
			Help: "Number of configured snapshot lifecycle policies",
		},
	)

	// PolicyFailureGap tracks, per policy, how long the last failure trails the last success
	PolicyFailureGap = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slmhealth_policy_failure_gap_seconds",
			Help: "Time between the last successful snapshot start and the last failed snapshot finish",
		},
		[]string{"policy"},
	)

	// DBConnectionPoolUsage tracks PostgreSQL pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slmhealth_db_connection_pool_usage_percent",
			Help: "Percentage of open PostgreSQL connections relative to the pool maximum",
		},
	)
)
