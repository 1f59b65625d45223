package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shop",
		Name:      "orders_created_total",
		Help:      "Orders committed by the intake endpoint.",
	})

	OrdersReplayed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shop",
		Name:      "orders_replayed_total",
		Help:      "Order submissions answered from an existing idempotency key.",
	})

	NotificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shop",
		Name:      "notifications_failed_total",
		Help:      "Notifications that could not be delivered.",
	}, []string{"recipient"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shop",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shop",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)
