// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

// Package metrics declares the Prometheus collectors of the service. All
// collectors register on the default registry through promauto.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "critique_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "critique_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "critique_api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)

	// Authorization Metrics
	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "critique_authz_decisions_total",
			Help: "Authorization decisions by resource kind, action and outcome",
		},
		[]string{"resource", "action", "outcome"}, // outcome: allow, forbidden, unauthenticated
	)

	AuthzCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "critique_authz_cache_lookups_total",
			Help: "Policy decision cache lookups",
		},
		[]string{"result"}, // hit, miss
	)

	// Rating Aggregate Metrics
	AggregateUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "critique_aggregate_updates_total",
			Help: "Rating aggregate updates by delta kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: ok, contention, invariant, error
	)

	AggregateRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "critique_aggregate_retries_total",
			Help: "Aggregate compare-and-swap retries by cause",
		},
		[]string{"cause"}, // stale, busy
	)

	AggregateUpdateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "critique_aggregate_update_duration_seconds",
			Help:    "Duration of aggregate updates including retries",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Mail Metrics
	MailDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "critique_mail_dispatches_total",
			Help: "Confirmation message dispatches by backend and outcome",
		},
		[]string{"backend", "outcome"}, // outcome: sent, failed, circuit_open, throttled
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "critique_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "critique_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Account Metrics
	SignupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "critique_signups_total",
			Help: "Signup requests by outcome",
		},
		[]string{"outcome"}, // created, resent, conflict, dispatch_failed
	)

	TokenRedemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "critique_token_redemptions_total",
			Help: "Confirmation code redemptions by outcome",
		},
		[]string{"outcome"}, // issued, invalid_code, unknown_user
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAuthzDecision records one policy decision.
func RecordAuthzDecision(resource, action, outcome string) {
	AuthzDecisions.WithLabelValues(resource, action, outcome).Inc()
}

// RecordAggregateUpdate records the outcome of one aggregate update.
func RecordAggregateUpdate(kind, outcome string, duration time.Duration) {
	AggregateUpdates.WithLabelValues(kind, outcome).Inc()
	AggregateUpdateDuration.Observe(duration.Seconds())
}

// RecordMailDispatch records one dispatch attempt.
func RecordMailDispatch(backend, outcome string) {
	MailDispatches.WithLabelValues(backend, outcome).Inc()
}
