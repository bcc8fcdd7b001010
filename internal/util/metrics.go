package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutSessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_created_total",
		Help: "Total number of payment provider checkout sessions created",
	})

	CheckoutFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failed_total",
		Help: "Total number of failed checkout attempts",
	}, []string{"reason"})

	CatalogLookupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_lookups_total",
		Help: "Total number of catalog lookups",
	})

	CatalogLookupsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_lookups_failed_total",
		Help: "Total number of failed catalog lookups",
	}, []string{"reason"})

	CartsClearedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carts_cleared_total",
		Help: "Total number of carts cleared",
	}, []string{"reason"})

	PurchasesRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchases_recorded_total",
		Help: "Total number of purchases written to the library",
	})

	PurchasesCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchases_cancelled_total",
		Help: "Total number of checkouts cancelled by the purchaser",
	})

	LibraryCacheInvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "library_cache_invalidations_total",
		Help: "Total number of library cache invalidations",
	})

	ProviderSessionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "provider_session_latency_seconds",
		Help:    "Latency of payment provider session creation",
		Buckets: prometheus.DefBuckets,
	})

	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Total number of payment provider webhook events received",
	}, []string{"type"})

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
