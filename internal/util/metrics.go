package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BidsPricedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bids_priced_total",
		Help: "Total number of bids successfully priced",
	})

	BidPricingFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bid_pricing_failed_total",
		Help: "Total number of failed bid pricing attempts",
	}, []string{"reason"})

	PlatformFeeCollectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "platform_fee_collected_rupees_total",
		Help: "Cumulative platform fee revenue collected across priced bids, in rupees",
	})

	LaneTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lane_transitions_total",
		Help: "Total number of lane state transitions",
	}, []string{"from", "to"})

	LaneTransitionsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lane_transitions_rejected_total",
		Help: "Total number of rejected lane transition attempts",
	}, []string{"reason"})

	DemandSignalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "demand_signals_total",
		Help: "Total number of demand signals ingested",
	})

	RoutingQueriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_queries_total",
		Help: "Total number of qualified-supplier routing queries",
	})

	RoutingAccessDeniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routing_access_denied_total",
		Help: "Total number of denied supplier RFQ access checks",
	}, []string{"reason"})

	RoutingFailOpenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_fail_open_total",
		Help: "Total number of access checks that failed open on lookup errors",
	})

	RateLimitRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_rejected_total",
		Help: "Total number of requests rejected by the rate limiter",
	})

	PricingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bid_pricing_duration_seconds",
		Help:    "Latency of bid pricing including persistence",
		Buckets: prometheus.DefBuckets,
	})

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
