package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the harvester.
type Metrics struct {
	Registry           *prometheus.Registry
	PagesTotal         *prometheus.CounterVec
	PageDuration       prometheus.Histogram
	ListingsTotal      prometheus.Counter
	RetriesTotal       prometheus.Counter
	ErrorsTotal        *prometheus.CounterVec
	StabilizationIters prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_pages_total",
			Help: "Total pages harvested, by outcome.",
		},
		[]string{"outcome"},
	)
	pageDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "harvester_page_duration_seconds",
			Help:    "Wall time spent loading and extracting one page.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)
	listings := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvester_listings_total",
			Help: "Total listing records extracted.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvester_navigation_retries_total",
			Help: "Total navigation retry attempts.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_errors_total",
			Help: "Total harvester errors by type.",
		},
		[]string{"error_type"},
	)
	stabilization := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "harvester_stabilization_iterations",
			Help:    "Scroll-stabilization iterations needed per page.",
			Buckets: prometheus.LinearBuckets(5, 10, 10),
		},
	)

	registry.MustRegister(pages, pageDuration, listings, retries, errorsTotal, stabilization)

	return &Metrics{
		Registry:           registry,
		PagesTotal:         pages,
		PageDuration:       pageDuration,
		ListingsTotal:      listings,
		RetriesTotal:       retries,
		ErrorsTotal:        errorsTotal,
		StabilizationIters: stabilization,
	}
}

// IncPage increments the pages counter for an outcome label.
func (m *Metrics) IncPage(outcome string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(outcome).Inc()
}

// ObserveDuration records one page harvest duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.PageDuration.Observe(d.Seconds())
}

// AddListings adds to the extracted listings counter.
func (m *Metrics) AddListings(n int) {
	if m == nil {
		return
	}
	m.ListingsTotal.Add(float64(n))
}

// IncRetries increments the navigation retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// ObserveStabilization records the iterations one page needed to settle.
func (m *Metrics) ObserveStabilization(iterations int) {
	if m == nil {
		return
	}
	m.StabilizationIters.Observe(float64(iterations))
}
