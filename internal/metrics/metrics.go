package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "eduvista"

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	GuardDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Route guard decisions by outcome",
		},
		[]string{"outcome"},
	)

	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Login and registration attempts by result",
		},
		[]string{"action", "result"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Clients with a logged-in user",
		},
	)

	ConnectedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clients",
			Help:      "Clients held in memory",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		GuardDecisions,
		AuthAttempts,
		ActiveSessions,
		ConnectedClients,
	)
}

// RecordRequest records one served HTTP request.
func RecordRequest(method, route, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, route, status).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuth records a login or registration result ("ok" or an error code).
func RecordAuth(action, result string) {
	AuthAttempts.WithLabelValues(action, result).Inc()
}
