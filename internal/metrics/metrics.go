package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Engine Metrics
var (
	PlansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePlansTotal,
			Help: HelpTextPlansTotal,
		},
		[]string{LabelTransport, LabelOutcome},
	)

	PlanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    MetricNamePlanDuration,
			Help:    HelpTextPlanDuration,
			Buckets: HTTPLatencyBuckets,
		},
	)

	EstimatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEstimatesTotal,
			Help: HelpTextEstimatesTotal,
		},
		[]string{LabelTransport, LabelOutcome},
	)

	EstimateWarnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameEstimateWarnings,
			Help: HelpTextEstimateWarnings,
		},
	)

	PlanCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePlanCacheLookups,
			Help: HelpTextPlanCacheLookups,
		},
		[]string{LabelResult},
	)

	GameDataReloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameGameDataReloads,
			Help: HelpTextGameDataReloads,
		},
	)
)

// RecordCacheDelta adds hit/miss deltas read from a cache's running totals.
func RecordCacheDelta(hits, misses uint64) {
	if hits > 0 {
		PlanCacheLookups.WithLabelValues(ResultHit).Add(float64(hits))
	}
	if misses > 0 {
		PlanCacheLookups.WithLabelValues(ResultMiss).Add(float64(misses))
	}
}
