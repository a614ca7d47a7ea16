package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// result: created|refreshed|rejected
	AccessGrantsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_grants_total",
			Help: "Grant requests by outcome.",
		},
		[]string{"result"},
	)

	// result: allowed|denied
	AuthorizationChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_authorization_checks_total",
			Help: "Authorization checks by outcome.",
		},
		[]string{"result"},
	)

	// operation: grant|revoke|extend|records|audit
	AccessDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_denied_total",
			Help: "Forbidden attempts by operation.",
		},
		[]string{"operation"},
	)

	SweepRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_sweep_runs_total",
			Help: "Expiration sweep runs by outcome.",
		},
		[]string{"result"},
	)

	SweepExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "access_sweep_expired_total",
			Help: "Grants removed by the expiration sweep.",
		},
	)
)

var registerOnce sync.Once

// MustRegister registra todo bajo la label constante service.
// Los vectores se pueden usar sin registrar (tests); solo no se exponen.
func MustRegister(serviceName string) {
	registerOnce.Do(func() {
		reg := prometheus.WrapRegistererWith(
			prometheus.Labels{"service": serviceName},
			prometheus.DefaultRegisterer,
		)
		reg.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			AccessGrantsTotal,
			AuthorizationChecksTotal,
			AccessDeniedTotal,
			SweepRunsTotal,
			SweepExpiredTotal,
		)
	})
}
