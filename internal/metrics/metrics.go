package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kaiapay",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kaiapay",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "route"})

	// Reconciliation
	ReconciliationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kaiapay",
		Name:      "reconciliation_total",
		Help:      "Reconciliation attempts by kind and outcome",
	}, []string{"kind", "outcome"})

	ReceiptFetchAttempts = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kaiapay",
		Subsystem: "chain",
		Name:      "receipt_fetch_attempts",
		Help:      "RPC invocations needed per receipt fetch",
		Buckets:   []float64{1, 2, 3, 4, 5, 8},
	}, []string{"outcome"})

	RelayTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kaiapay",
		Subsystem: "fee_delegation",
		Name:      "relay_total",
		Help:      "Fee delegated relays by outcome",
	}, []string{"outcome"})

	// Jobs
	LinkExpiryRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kaiapay",
		Subsystem: "jobs",
		Name:      "link_expiry_runs_total",
		Help:      "Link expiry job runs by outcome",
	}, []string{"outcome"})

	LinkExpiryExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kaiapay",
		Subsystem: "jobs",
		Name:      "link_expiry_expired_total",
		Help:      "Link transfers moved to expired",
	})
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
