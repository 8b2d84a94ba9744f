package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polyagent_orders_total",
		Help: "The total number of order placements processed",
	}, []string{"status", "side", "simulated"})

	CancelsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polyagent_cancels_total",
		Help: "The total number of cancel operations",
	}, []string{"kind"})

	RiskRejects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polyagent_risk_rejects_total",
		Help: "Total validator and risk rejections",
	}, []string{"reason"})

	AuthHandshakes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polyagent_auth_handshakes_total",
		Help: "Auth session handshake attempts",
	}, []string{"outcome"})

	MetadataLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polyagent_metadata_lookups_total",
		Help: "Market metadata cache lookups",
	}, []string{"result"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "polyagent_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
