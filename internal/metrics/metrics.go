// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingest
var (
	LikesSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "likes_submitted_total",
			Help: "Like submissions by outcome (accepted, invalid_input, not_connected, delivery_failed)",
		},
		[]string{"result"},
	)

	LikeAppendRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "like_append_retries_total",
			Help: "Retried like log appends after a transient store failure",
		},
	)

	LikeAppendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "like_append_duration_seconds",
			Help:    "Time from submission to durable append, including retries",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Index and quorum evaluation
var (
	LikesIndexed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "likes_indexed_total",
			Help: "Like events applied by the index, split by whether they added a new actor",
		},
		[]string{"outcome"}, // "new_actor", "duplicate"
	)

	MatchesDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matches_detected_total",
			Help: "Quorum crossings detected by the evaluator",
		},
	)

	ShardQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shard_queue_depth",
			Help: "Pending like events per index shard",
		},
		[]string{"shard"},
	)

	ShardItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shard_items",
			Help: "Items tracked per index shard",
		},
		[]string{"shard"},
	)
)

// Notifier and delivery
var (
	MatchesPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matches_persisted_total",
			Help: "Match record writes by outcome (created, existing, failed)",
		},
		[]string{"result"},
	)

	MatchPublishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_publishes_total",
			Help: "Match notifications handed to the broker, by outcome",
		},
		[]string{"result"},
	)

	MatchDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_deliveries_total",
			Help: "Per-participant match delivery outcomes; delivered counts frames written to a client",
		},
		[]string{"result"},
	)
)

// Sessions
var (
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_sessions_active",
			Help: "Currently connected participant sessions",
		},
	)

	SessionsStalled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_sessions_stalled_total",
			Help: "Sessions dropped because their send queue overflowed",
		},
	)

	SessionFrames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_frames_sent_total",
			Help: "Frames queued to sessions by type",
		},
		[]string{"type"},
	)
)

// Subscription bridge
var (
	BridgeResnapshots = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_resnapshots_total",
			Help: "Live query re-subscriptions by reason (overflow, error)",
		},
		[]string{"reason"},
	)

	BridgeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_events_total",
			Help: "Like events forwarded to the index by phase (snapshot, diff)",
		},
		[]string{"phase"},
	)

	BridgeConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_connected",
			Help: "1 while the live query is streaming diffs",
		},
	)
)

// Broker transport
var (
	BrokerPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broker_messages_published_total",
			Help: "Messages published to the broker",
		},
	)

	BrokerConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_messages_consumed_total",
			Help: "Messages consumed from the broker by outcome (acked, nacked, poison)",
		},
		[]string{"result"},
	)
)

// Catalog
var (
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_requests_total",
			Help: "Catalog API requests by endpoint and outcome",
		},
		[]string{"endpoint", "result"},
	)

	CatalogLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_request_duration_seconds",
			Help:    "Catalog API latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

// Resilience
var (
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// HTTP API
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "In-flight API requests",
		},
	)
)

// RecordLikeSubmission records the outcome of one SubmitLike call.
func RecordLikeSubmission(result string, duration time.Duration) {
	LikesSubmitted.WithLabelValues(result).Inc()
	if result == "accepted" {
		LikeAppendDuration.Observe(duration.Seconds())
	}
}

// RecordLikeIndexed records one index transition.
func RecordLikeIndexed(newActor bool) {
	if newActor {
		LikesIndexed.WithLabelValues("new_actor").Inc()
		return
	}
	LikesIndexed.WithLabelValues("duplicate").Inc()
}

// UpdateShardGauges publishes one shard's queue depth and item count.
func UpdateShardGauges(shard, depth, items int) {
	label := strconv.Itoa(shard)
	ShardQueueDepth.WithLabelValues(label).Set(float64(depth))
	ShardItems.WithLabelValues(label).Set(float64(items))
}

// RecordCircuitBreakerTransition updates breaker state gauges.
// States use gobreaker's ordering: closed=0, half-open=1, open=2.
func RecordCircuitBreakerTransition(name, from, to string, toState int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(toState))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordCatalogRequest records one catalog call.
func RecordCatalogRequest(endpoint, result string, duration time.Duration) {
	CatalogRequests.WithLabelValues(endpoint, result).Inc()
	CatalogLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordAPIRequest records one HTTP request. route is the chi route pattern,
// never the raw path, to keep cardinality bounded.
func RecordAPIRequest(method, route string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
