package metrics

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP and record-operation metrics, registered lazily on the manager's
// registry the first time anything is recorded. They stay nil while
// business metrics are disabled.
var (
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPActiveConnections prometheus.Gauge
	RecordOpsTotal        *prometheus.CounterVec
)

// initializeHTTPMetrics initializes HTTP metrics if they haven't been initialized yet
func initializeHTTPMetrics() {
	if HTTPRequestsTotal != nil {
		return // Already initialized
	}

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	RecordOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "record_operations_total",
			Help: "Total number of record store operations",
		},
		[]string{"operation", "result"}, // "create"/"success", "import"/"malformed", ...
	)

	mm := GetInstance()
	mm.registry.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPActiveConnections,
		RecordOpsTotal,
	)
}

func businessMetricsEnabled() bool {
	return os.Getenv("ENABLE_BUSINESS_METRICS") == "true"
}

// RecordHTTPRequest records metrics for an HTTP request
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if !businessMetricsEnabled() {
		return
	}
	initializeHTTPMetrics()

	status := strconv.Itoa(statusCode)
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordStoreOp records the outcome of a record store operation
// (create, update, search, export, import).
func RecordStoreOp(operation, result string) {
	if !businessMetricsEnabled() {
		return
	}
	initializeHTTPMetrics()

	RecordOpsTotal.WithLabelValues(operation, result).Inc()
}

// IncActiveConnections increments active connections
func IncActiveConnections() {
	if !businessMetricsEnabled() {
		return
	}
	initializeHTTPMetrics()
	HTTPActiveConnections.Inc()
}

// DecActiveConnections decrements active connections
func DecActiveConnections() {
	if !businessMetricsEnabled() {
		return
	}
	initializeHTTPMetrics()
	HTTPActiveConnections.Dec()
}

// Handler exposes the manager's registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetInstance().registry, promhttp.HandlerOpts{})
}
