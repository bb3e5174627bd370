package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequestsTotal counts total HTTP requests
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gymhub",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration measures request latency
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gymhub",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// httpRequestsInFlight tracks concurrent requests
	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gymhub",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)
)

// Business metrics
var (
	// BookingsTotal counts booking attempts by outcome
	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gymhub",
			Subsystem: "business",
			Name:      "bookings_total",
			Help:      "Total number of booking attempts",
		},
		[]string{"outcome"}, // booked, conflict, quota_exhausted, unavailable
	)

	// PaymentsTotal counts payments by status
	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gymhub",
			Subsystem: "business",
			Name:      "payments_total",
			Help:      "Total number of payments",
		},
		[]string{"status", "method"},
	)

	// IPNCallbacksTotal counts gateway callbacks by reconciliation outcome
	IPNCallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gymhub",
			Subsystem: "business",
			Name:      "ipn_callbacks_total",
			Help:      "Total number of gateway IPN callbacks",
		},
		[]string{"outcome"}, // completed, failed, replay, unknown_transaction, rejected
	)

	// SweptAppointmentsTotal counts appointments marked missed by the sweeper
	SweptAppointmentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gymhub",
			Subsystem: "business",
			Name:      "swept_appointments_total",
			Help:      "Total number of appointments marked as missed by the sweeper",
		},
	)

	// SweptMembershipsTotal counts membership sweeper actions
	SweptMembershipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gymhub",
			Subsystem: "business",
			Name:      "swept_memberships_total",
			Help:      "Total number of memberships touched by the sweeper",
		},
		[]string{"action"}, // expired, stale_pending_deleted
	)
)

// Database metrics
var (
	// DBQueryDuration measures database query latency
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gymhub",
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation", "table"},
	)

	// DBConnectionsTotal tracks database connections
	DBConnectionsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gymhub",
			Subsystem: "db",
			Name:      "connections",
			Help:      "Number of database connections",
		},
		[]string{"state"}, // idle, in_use, max
	)
)

// Metrics returns Prometheus metrics middleware
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip metrics endpoint
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		method := c.Request.Method

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// RecordBooking records a booking attempt metric
func RecordBooking(outcome string) {
	BookingsTotal.WithLabelValues(outcome).Inc()
}

// RecordPayment records a payment metric
func RecordPayment(status, method string) {
	PaymentsTotal.WithLabelValues(status, method).Inc()
}

// RecordIPNCallback records a gateway callback metric
func RecordIPNCallback(outcome string) {
	IPNCallbacksTotal.WithLabelValues(outcome).Inc()
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// UpdateDBConnections updates database connection metrics
func UpdateDBConnections(idle, inUse, max int32) {
	DBConnectionsTotal.WithLabelValues("idle").Set(float64(idle))
	DBConnectionsTotal.WithLabelValues("in_use").Set(float64(inUse))
	DBConnectionsTotal.WithLabelValues("max").Set(float64(max))
}
