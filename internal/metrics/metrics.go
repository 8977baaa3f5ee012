// Package metrics exposes the Prometheus collectors of the marketplace.
package metrics

import (
	"net/http" // Handler type
	"time"     // Request durations

	"github.com/prometheus/client_golang/prometheus"          // Collectors
	"github.com/prometheus/client_golang/prometheus/promhttp" // Exposition handler
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"}, // Route pattern, not raw path
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "marketplace",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	ordersPlaced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Total number of orders recorded.",
		},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "notifications",
			Name:      "sent_total",
			Help:      "Notification attempts by template and outcome.",
		},
		[]string{"template", "result"},
	)

	productUpserts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "catalog",
			Name:      "upserts_total",
			Help:      "Product writes split by insert and replace.",
		},
		[]string{"kind"},
	)
)

// init registers every collector on the private registry
func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		ordersPlaced,
		notifications,
		productUpserts,
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest tracks one served request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordOrderPlaced counts a persisted order.
func RecordOrderPlaced() {
	ordersPlaced.Inc()
}

// RecordNotification counts a notification attempt.
func RecordNotification(template string, err error) {
	result := "sent" // Delivered
	if err != nil {
		result = "failed" // Timed out, rejected or panicked
	}
	notifications.WithLabelValues(template, result).Inc()
}

// RecordProductUpsert counts a catalog write.
func RecordProductUpsert(created bool) {
	kind := "replace" // Existing name overwritten
	if created {
		kind = "insert" // New product name
	}
	productUpserts.WithLabelValues(kind).Inc()
}
