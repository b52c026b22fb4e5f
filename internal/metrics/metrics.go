// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CardWrites counts successful card writes by operation.
	CardWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pokestock",
		Name:      "card_writes_total",
		Help:      "Card inserts, updates and deletes.",
	}, []string{"op"})

	// RealtimeEvents counts change events by origin (local or redis).
	RealtimeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pokestock",
		Name:      "realtime_events_total",
		Help:      "Change events published to subscribers.",
	}, []string{"source"})

	// RealtimeDropped counts events not delivered to a full subscriber buffer.
	RealtimeDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pokestock",
		Name:      "realtime_dropped_total",
		Help:      "Change events dropped for slow subscribers.",
	})

	// Subscribers tracks open change-feed subscriptions.
	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pokestock",
		Name:      "realtime_subscribers",
		Help:      "Open change-feed subscriptions.",
	})

	// HTTPRequests measures request latency by method and status code.
	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pokestock",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "code"})

	// SignIns counts sign-in attempts by method and outcome.
	SignIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pokestock",
		Name:      "sign_ins_total",
		Help:      "Sign-in attempts.",
	}, []string{"method", "outcome"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
