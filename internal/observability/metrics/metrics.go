package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmops_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "farmops_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	attendanceEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmops_attendance_events_total",
		Help: "Punch-in and punch-out attempts by outcome",
	}, []string{"action", "result"})

	authFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmops_auth_failures_total",
		Help: "Rejected authentication and authorization attempts by reason",
	}, []string{"reason"})
)

// Attendance actions.
const (
	ActionPunchIn  = "punch_in"
	ActionPunchOut = "punch_out"
)

// Attendance results.
const (
	ResultOK        = "ok"
	ResultConflict  = "conflict"
	ResultNotFound  = "not_found"
	ResultForbidden = "forbidden"
	ResultInvalid   = "invalid"
	ResultError     = "error"
)

// Auth failure reasons.
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonInactive        = "inactive"
	ReasonForbiddenRole   = "forbidden_role"
	ReasonBadCredentials  = "bad_credentials"
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveAttendance counts a punch attempt.
func ObserveAttendance(action, result string) {
	attendanceEvents.WithLabelValues(action, result).Inc()
}

// ObserveAuthFailure counts a rejected request.
func ObserveAuthFailure(reason string) {
	authFailures.WithLabelValues(reason).Inc()
}

// Middleware records request counts and latencies labelled by route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		ObserveHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
