package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Current number of active HTTP requests",
		},
	)

	// Pin Lifecycle Metrics
	PinActivityTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pin_activity_total",
			Help: "Total number of recorded pin activities",
		},
		[]string{"action", "platform"}, // endorse/renew/downvote, device/os
	)

	ScoreComputationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pin_score_computations_total",
			Help: "Total number of committed score refreshes",
		},
	)

	PinsHealedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pins_healed_total",
			Help: "Total number of pins surviving a healing pass",
		},
	)

	PinsRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pins_removed_total",
			Help: "Total number of pins removed during healing",
		},
	)

	PinsMigratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pins_migrated_total",
			Help: "Total number of legacy pins migrated",
		},
	)

	IntegrityIssues = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pin_integrity_issues",
			Help: "Issues found by the last integrity check, by severity",
		},
		[]string{"severity"},
	)

	// System Metrics
	SystemCPUUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "system_cpu_usage_percent",
			Help: "Current CPU usage percentage",
		},
	)

	SystemMemoryUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "system_memory_usage_percent",
			Help: "Current memory usage percentage",
		},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type"}, // store, validation, healing, etc.
	)
)

// MetricsMiddleware handles basic HTTP metrics
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		ActiveRequests.Inc()
		defer ActiveRequests.Dec()

		c.Next()

		HTTPRequestsTotal.WithLabelValues(
			method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		HTTPRequestDuration.WithLabelValues(
			method,
			path,
		).Observe(time.Since(start).Seconds())
	}
}

// TrackActivity increments the pin activity counter
func TrackActivity(action, platform string) {
	PinActivityTotal.WithLabelValues(action, platform).Inc()
}

// TrackHealResult records the outcome of a healing pass
func TrackHealResult(healed, removed, migrated int) {
	PinsHealedTotal.Add(float64(healed))
	PinsRemovedTotal.Add(float64(removed))
	PinsMigratedTotal.Add(float64(migrated))
}

// TrackIntegrity updates the integrity issue gauges
func TrackIntegrity(severityCounts map[string]int) {
	for severity, count := range severityCounts {
		IntegrityIssues.WithLabelValues(severity).Set(float64(count))
	}
}

// TrackError increments the error counter by type
func TrackError(errorType string) {
	ErrorsTotal.WithLabelValues(errorType).Inc()
}
