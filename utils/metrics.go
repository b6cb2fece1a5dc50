package utils

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles Prometheus collectors for a scrape run.
type Metrics struct {
	Registry            *prometheus.Registry
	PagesVisited        *prometheus.CounterVec
	ItemsCollected      *prometheus.CounterVec
	ItemsDropped        *prometheus.CounterVec
	OrderingRegressions prometheus.Counter
	PhaseDuration       *prometheus.HistogramVec
	EnrichmentBatches   *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_pages_visited_total",
			Help: "Browser navigations and load-more rounds per phase.",
		},
		[]string{"phase"},
	)
	collected := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_items_collected_total",
			Help: "Items added to the dataset by kind.",
		},
		[]string{"kind"},
	)
	dropped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_items_dropped_total",
			Help: "Extracted blocks that were not added, by kind and reason.",
		},
		[]string{"kind", "reason"},
	)
	regressions := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_ordering_regressions_total",
			Help: "Reviews dated newer than an older review seen before them.",
		},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scraper_phase_duration_seconds",
			Help:    "Wall time of each collection or enrichment phase.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"phase"},
	)
	batches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_batches_total",
			Help: "Sentiment classifier batches by outcome.",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(pages, collected, dropped, regressions, duration, batches)

	return &Metrics{
		Registry:            registry,
		PagesVisited:        pages,
		ItemsCollected:      collected,
		ItemsDropped:        dropped,
		OrderingRegressions: regressions,
		PhaseDuration:       duration,
		EnrichmentBatches:   batches,
	}
}

func (m *Metrics) IncPage(phase string) {
	if m == nil {
		return
	}
	m.PagesVisited.WithLabelValues(phase).Inc()
}

func (m *Metrics) IncCollected(kind string) {
	if m == nil {
		return
	}
	m.ItemsCollected.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncDropped(kind, reason string) {
	if m == nil {
		return
	}
	m.ItemsDropped.WithLabelValues(kind, reason).Inc()
}

func (m *Metrics) IncOrderingRegression() {
	if m == nil {
		return
	}
	m.OrderingRegressions.Inc()
}

func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.PhaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

func (m *Metrics) IncBatch(outcome string) {
	if m == nil {
		return
	}
	m.EnrichmentBatches.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve starts a background /metrics server on addr.
func (m *Metrics) Serve(addr string, logger *Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Error("[metrics] server stopped: %v", err)
		}
	}()
	logger.Info("[metrics] serving on %s/metrics", addr)
}
