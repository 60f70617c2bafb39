package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// IndexerMetrics collects catalog ingestion telemetry for the indexer worker.
type IndexerMetrics struct {
	service  string
	registry *prometheus.Registry

	ingestTotal     *prometheus.CounterVec
	ingestDuration  *prometheus.HistogramVec
	ingestInFlight  prometheus.Gauge
	productsIndexed *prometheus.CounterVec
}

func NewIndexerMetrics(service string) *IndexerMetrics {
	registry := prometheus.NewRegistry()

	ingestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rec",
			Subsystem: "indexer",
			Name:      "ingest_total",
			Help:      "Total catalog ingestion runs by status.",
		},
		[]string{"service", "status"},
	)
	ingestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rec",
			Subsystem: "indexer",
			Name:      "ingest_duration_seconds",
			Help:      "Catalog ingestion duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	ingestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rec",
			Subsystem: "indexer",
			Name:      "ingest_in_flight",
			Help:      "Number of in-flight ingestion runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	productsIndexed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rec",
			Subsystem: "indexer",
			Name:      "products_indexed_total",
			Help:      "Total products written to each backend index.",
		},
		[]string{"service", "backend"},
	)

	registry.MustRegister(ingestTotal, ingestDuration, ingestInFlight, productsIndexed)

	return &IndexerMetrics{
		service:         service,
		registry:        registry,
		ingestTotal:     ingestTotal,
		ingestDuration:  ingestDuration,
		ingestInFlight:  ingestInFlight,
		productsIndexed: productsIndexed,
	}
}

func (m *IndexerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *IndexerMetrics) StartIngest() {
	m.ingestInFlight.Inc()
}

func (m *IndexerMetrics) FinishIngest(duration time.Duration, err error) {
	m.ingestInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.ingestTotal.WithLabelValues(m.service, status).Inc()
	m.ingestDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *IndexerMetrics) AddIndexedProducts(backend string, count int) {
	if count <= 0 {
		return
	}
	m.productsIndexed.WithLabelValues(m.service, backend).Add(float64(count))
}
