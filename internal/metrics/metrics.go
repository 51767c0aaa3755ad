// Package metrics holds the Prometheus collectors for ledger operations.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"finance/internal/core"
)

// Result label values.
const (
	ResultOK          = "ok"
	ResultValidation  = "validation"
	ResultNotFound    = "not_found"
	ResultPersistence = "persistence"
	ResultError       = "error"
)

// LedgerOperations counts ledger operations by name and outcome.
var LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "finance",
	Subsystem: "ledger",
	Name:      "operations_total",
	Help:      "Total ledger operations by operation and result.",
}, []string{"operation", "result"})

// LedgerOperationDuration tracks the wall time of load-mutate-save cycles.
var LedgerOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "finance",
	Subsystem: "ledger",
	Name:      "operation_duration_seconds",
	Help:      "Duration of ledger operations including persistence.",
	Buckets:   prometheus.DefBuckets,
}, []string{"operation"})

// LedgerTransactions is the transaction count seen by the last load or save.
var LedgerTransactions = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "finance",
	Subsystem: "ledger",
	Name:      "transactions",
	Help:      "Number of transactions in the most recently loaded or saved snapshot.",
})

// NotificationsPublished counts change notifications by outcome.
var NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "finance",
	Subsystem: "amqp",
	Name:      "notifications_total",
	Help:      "Ledger change notifications by result.",
}, []string{"result"})

// MirrorSyncs counts mirror passes by outcome: ok, unchanged or error.
var MirrorSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "finance",
	Subsystem: "mirror",
	Name:      "syncs_total",
	Help:      "Mirror sync passes by result.",
}, []string{"result"})

// ResultUnchanged labels a mirror pass that found nothing to copy.
const ResultUnchanged = "unchanged"

// HTTPRequests counts API requests by route pattern and status class.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "finance",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by route and status code class.",
}, []string{"route", "code"})

// RateLimited counts requests rejected by the per-client limiter.
var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "finance",
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected with 429.",
})

// SuspiciousRequests counts requests flagged by the security detector.
var SuspiciousRequests = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "finance",
	Subsystem: "http",
	Name:      "suspicious_requests_total",
	Help:      "Requests matching known attack patterns.",
})

// Result maps an operation error to its result label.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, core.ErrValidation):
		return ResultValidation
	case errors.Is(err, core.ErrNotFound):
		return ResultNotFound
	case errors.Is(err, core.ErrPersistence):
		return ResultPersistence
	default:
		return ResultError
	}
}

// ObserveOperation records one ledger operation that started at start.
func ObserveOperation(op string, start time.Time, err error) {
	LedgerOperations.WithLabelValues(op, Result(err)).Inc()
	LedgerOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// StatusClass turns 404 into "4xx".
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
