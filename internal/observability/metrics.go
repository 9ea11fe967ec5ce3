package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	apiRequestsTotal         *prometheus.CounterVec
	apiLatencySeconds        *prometheus.HistogramVec
	apiErrorsTotal           *prometheus.CounterVec
	progressResolutionsTotal *prometheus.CounterVec
	upstreamFailuresTotal    *prometheus.CounterVec
	optimisticRollbacksTotal *prometheus.CounterVec
	eventsPublishedTotal     *prometheus.CounterVec
	eventClientsActive       prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classdesk_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "classdesk_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classdesk_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		progressResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classdesk_progress_resolutions_total",
			Help: "Progress merge operations, labelled by outcome.",
		}, []string{"outcome"})

		upstreamFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classdesk_upstream_failures_total",
			Help: "Failed calls against the upstream platform API.",
		}, []string{"operation"})

		optimisticRollbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classdesk_optimistic_rollbacks_total",
			Help: "Optimistic mutations reverted after an upstream failure.",
		}, []string{"operation"})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classdesk_events_published_total",
			Help: "Invalidation events published to the bus.",
		}, []string{"type"})

		eventClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "classdesk_event_clients_active",
			Help: "Teacher sessions currently subscribed to the event stream.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			progressResolutionsTotal,
			upstreamFailuresTotal,
			optimisticRollbacksTotal,
			eventsPublishedTotal,
			eventClientsActive,
		)
	})
}

// APIRequests exposes the counter for served requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ProgressResolutions exposes the counter for merge operations.
func ProgressResolutions() *prometheus.CounterVec {
	RegisterMetrics()
	return progressResolutionsTotal
}

// UpstreamFailures exposes the counter for upstream call failures.
func UpstreamFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return upstreamFailuresTotal
}

// OptimisticRollbacks exposes the counter for reverted mutations.
func OptimisticRollbacks() *prometheus.CounterVec {
	RegisterMetrics()
	return optimisticRollbacksTotal
}

// EventsPublished exposes the counter for published invalidation events.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}

// EventClientsActive exposes the gauge of connected event stream clients.
func EventClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return eventClientsActive
}
