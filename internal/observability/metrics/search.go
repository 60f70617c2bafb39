package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SearchMetrics collects orchestration telemetry: per-request outcomes and
// per-strategy dispatch results.
type SearchMetrics struct {
	service string

	searchTotal      *prometheus.CounterVec
	searchDuration   *prometheus.HistogramVec
	strategyTotal    *prometheus.CounterVec
	strategyDuration *prometheus.HistogramVec
	resultCount      *prometheus.HistogramVec
	zeroResultsTotal *prometheus.CounterVec
}

func NewSearchMetrics(service string, registry *prometheus.Registry) *SearchMetrics {
	searchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rec",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total orchestrated searches by component type and status.",
		},
		[]string{"service", "component_type", "status"},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rec",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Orchestrated search duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "component_type"},
	)
	strategyTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rec",
			Subsystem: "strategy",
			Name:      "dispatch_total",
			Help:      "Total strategy dispatches by strategy and outcome.",
		},
		[]string{"service", "strategy", "status"},
	)
	strategyDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rec",
			Subsystem: "strategy",
			Name:      "duration_seconds",
			Help:      "Individual strategy call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "strategy"},
	)
	resultCount := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rec",
			Subsystem: "search",
			Name:      "result_count",
			Help:      "Distribution of consolidated result counts per search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
		},
		[]string{"service", "component_type"},
	)
	zeroResultsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rec",
			Subsystem: "search",
			Name:      "zero_results_total",
			Help:      "Total searches that returned an empty page.",
		},
		[]string{"service", "component_type"},
	)

	registry.MustRegister(searchTotal, searchDuration, strategyTotal, strategyDuration, resultCount, zeroResultsTotal)

	return &SearchMetrics{
		service:          service,
		searchTotal:      searchTotal,
		searchDuration:   searchDuration,
		strategyTotal:    strategyTotal,
		strategyDuration: strategyDuration,
		resultCount:      resultCount,
		zeroResultsTotal: zeroResultsTotal,
	}
}

func (m *SearchMetrics) ObserveSearch(componentType, status string, duration time.Duration) {
	m.searchTotal.WithLabelValues(m.service, componentType, status).Inc()
	m.searchDuration.WithLabelValues(m.service, componentType).Observe(duration.Seconds())
}

func (m *SearchMetrics) ObserveStrategy(strategy, status string, duration time.Duration) {
	m.strategyTotal.WithLabelValues(m.service, strategy, status).Inc()
	m.strategyDuration.WithLabelValues(m.service, strategy).Observe(duration.Seconds())
}

func (m *SearchMetrics) ObserveResultCount(componentType string, count int) {
	m.resultCount.WithLabelValues(m.service, componentType).Observe(float64(count))
}

func (m *SearchMetrics) IncZeroResults(componentType string) {
	m.zeroResultsTotal.WithLabelValues(m.service, componentType).Inc()
}
