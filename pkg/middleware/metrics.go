package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, path, and status code",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "Current number of HTTP requests being processed",
		},
	)

	serviceUptime = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "service_uptime_seconds",
			Help: "Service uptime in seconds",
		},
	)

	complaintSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_complaint_submissions_total",
			Help: "Complaint submissions by outcome",
		},
		[]string{"outcome"},
	)

	backendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_backend_request_duration_seconds",
			Help:    "Categorization backend call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "status"},
	)

	dashboardStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "portal_dashboard_streams",
			Help: "Open officer dashboard event streams",
		},
	)

	registerOnce sync.Once
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			httpRequestsInProgress,
			serviceUptime,
			complaintSubmissions,
			backendRequestDuration,
			dashboardStreams,
		)

		go func() {
			ticker := time.NewTicker(1 * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				serviceUptime.Inc()
			}
		}()
	})
}

// RecordSubmission counts one submit attempt: "success", "failed" or
// "invalid".
func RecordSubmission(outcome string) {
	complaintSubmissions.WithLabelValues(outcome).Inc()
}

func ObserveBackendCall(op, status string, d time.Duration) {
	backendRequestDuration.WithLabelValues(op, status).Observe(d.Seconds())
}

// TrackDashboardStream marks a stream open and returns the func that marks
// it closed.
func TrackDashboardStream() func() {
	dashboardStreams.Inc()
	return dashboardStreams.Dec
}

func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if len(part) > 20 || (len(part) > 0 && part[0] >= '0' && part[0] <= '9') {
			parts[i] = ":id"
		}
	}
	normalized := strings.Join(parts, "/")

	if len(normalized) > 100 {
		normalized = normalized[:100]
	}
	return normalized
}

func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		httpRequestsInProgress.Inc()
		defer httpRequestsInProgress.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)
		status := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

func GetMetricsHandler() http.Handler {
	return promhttp.Handler()
}
