package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Total number of checkout attempts started",
	})

	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders accepted by the order service",
	})

	CheckoutFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failed_total",
		Help: "Total number of failed checkout attempts",
	}, []string{"reason"})

	CheckoutCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_cancelled_total",
		Help: "Total number of checkout attempts cancelled by the user",
	})

	EnrichmentDegradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "enrichment_degraded_lines_total",
		Help: "Total number of cart lines with placeholder attributes after a failed catalog lookup",
	})

	EnrichmentLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "enrichment_latency_seconds",
		Help:    "Latency of the cart line enrichment fan-out",
		Buckets: prometheus.DefBuckets,
	})

	PaymentAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_attempts_total",
		Help: "Total number of payment attempts",
	})

	PaymentSuccessTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_success_total",
		Help: "Total number of successful payments",
	})

	PaymentFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_failed_total",
		Help: "Total number of failed payments",
	})

	ReceiptsWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receipts_written_total",
		Help: "Total number of receipts written to the cache",
	})

	ReceiptsReconciledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receipts_reconciled_total",
		Help: "Total number of receipts reconciled against the order service",
	})

	RemoteCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "remote_call_duration_seconds",
		Help:    "Latency of calls to collaborator services",
		Buckets: prometheus.DefBuckets,
	}, []string{"service", "operation", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
