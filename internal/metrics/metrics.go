// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

// Package metrics defines the Prometheus collectors exported on /metrics.
//
// Collectors are registered with the default registry through promauto at
// package init, so any package can record without wiring. The Record*
// helpers keep label cardinality bounded (error strings are bucketed into
// a handful of types, never used raw beyond a short prefix).
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of Postgres queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of Postgres query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBOpenConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_open_connections",
			Help: "Current number of open database connections",
		},
	)

	DBMigrationsApplied = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_migrations_applied",
			Help: "Number of schema migrations recorded in the migrations table",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Authentication Metrics
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Registration and login attempts by outcome",
		},
		[]string{"operation", "result"}, // operation: register, login; result: success, failure
	)

	AuthTokensRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tokens_rejected_total",
			Help: "Bearer tokens rejected by the authentication middleware",
		},
		[]string{"reason"},
	)

	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Casbin authorization decisions by role and outcome",
		},
		[]string{"role", "decision"},
	)

	AuthzCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_cache_hits_total",
			Help: "Authorization decisions served from the decision cache",
		},
	)

	// Strava Metrics
	StravaAPIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strava_api_requests_total",
			Help: "Total number of requests made to the Strava API",
		},
		[]string{"endpoint", "status_code"},
	)

	StravaAPIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strava_api_duration_seconds",
			Help:    "Latency of Strava API requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	StravaRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strava_rate_limited_total",
			Help: "Number of 429 responses received from Strava",
		},
	)

	StravaTokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strava_token_refreshes_total",
			Help: "Strava access token refreshes by result",
		},
		[]string{"result"},
	)

	// Sync Operation Metrics
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of per-user Strava sync runs in seconds",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	SyncActivitiesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_activities_fetched_total",
			Help: "Activities returned by Strava during sync",
		},
	)

	SyncActivitiesImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_activities_imported_total",
			Help: "Activities inserted into the database during sync",
		},
	)

	SyncActivitiesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_activities_skipped_total",
			Help: "Activities skipped during sync by reason",
		},
		[]string{"reason"}, // duplicate, filtered_type, invalid
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_errors_total",
			Help: "Total number of sync errors by type",
		},
		[]string{"error_type"},
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_last_success_timestamp",
			Help: "Unix timestamp of the last successful sync run",
		},
	)

	// ML Service Metrics
	MLRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ml_requests_total",
			Help: "Requests proxied to the ML service by operation and result",
		},
		[]string{"operation", "result"},
	)

	MLRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ml_request_duration_seconds",
			Help:    "Latency of ML service requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	MLFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ml_fallbacks_total",
			Help: "Responses served from local fallbacks instead of the ML service",
		},
		[]string{"operation"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cache entries",
		},
		[]string{"cache"},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Total number of cache invalidations",
		},
		[]string{"cache"},
	)

	// Domain Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Domain events published to the message bus",
		},
		[]string{"topic"},
	)

	EventsPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_publish_errors_total",
			Help: "Domain events that failed to publish",
		},
		[]string{"topic"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Domain events handled by subscribers",
		},
		[]string{"topic", "result"},
	)

	AnalyticsEventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_events_recorded_total",
			Help: "Analytics events stored by event type",
		},
		[]string{"event_type"},
	)

	// OAuth State Store Metrics
	OAuthStatesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "oauth_states_issued_total",
			Help: "Strava OAuth state parameters issued",
		},
	)

	OAuthStatesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_states_rejected_total",
			Help: "OAuth callbacks rejected because of state validation",
		},
		[]string{"reason"}, // unknown, expired
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAuthAttempt records a register or login attempt.
func RecordAuthAttempt(operation string, success bool) {
	AuthAttempts.WithLabelValues(operation, resultLabel(success)).Inc()
}

// RecordAuthzDecision records an allow or deny decision for a role.
func RecordAuthzDecision(role string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	AuthzDecisions.WithLabelValues(role, decision).Inc()
}

// RecordStravaRequest records a single Strava API round trip.
func RecordStravaRequest(endpoint string, statusCode int, duration time.Duration) {
	StravaAPIRequests.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	StravaAPIDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	if statusCode == 429 {
		StravaRateLimited.Inc()
	}
}

// RecordSyncOperation records the outcome of one user's sync run.
func RecordSyncOperation(duration time.Duration, fetched, imported int, err error) {
	SyncDuration.Observe(duration.Seconds())
	SyncActivitiesFetched.Add(float64(fetched))
	SyncActivitiesImported.Add(float64(imported))
	if err != nil {
		SyncErrors.WithLabelValues(categorizeSyncError(err)).Inc()
		return
	}
	SyncLastSuccess.Set(float64(time.Now().Unix()))
}

// categorizeSyncError buckets sync errors into a small fixed label set.
func categorizeSyncError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"):
		return "rate_limited"
	case strings.Contains(msg, "token"):
		return "token"
	case strings.Contains(msg, "strava"):
		return "strava_api"
	case strings.Contains(msg, "database"), strings.Contains(msg, "sql"):
		return "database"
	case strings.Contains(msg, "circuit breaker"):
		return "circuit_open"
	default:
		return "other"
	}
}

// RecordMLRequest records a call to the ML service.
func RecordMLRequest(operation string, duration time.Duration, err error) {
	MLRequests.WithLabelValues(operation, resultLabel(err == nil)).Inc()
	MLRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordMLFallback records a response served from the local fallback.
func RecordMLFallback(operation string) {
	MLFallbacks.WithLabelValues(operation).Inc()
}

// RecordEventPublished records a publish attempt for a domain event topic.
func RecordEventPublished(topic string, err error) {
	if err != nil {
		EventsPublishErrors.WithLabelValues(topic).Inc()
		return
	}
	EventsPublished.WithLabelValues(topic).Inc()
}

// RecordEventConsumed records a handled domain event.
func RecordEventConsumed(topic string, err error) {
	EventsConsumed.WithLabelValues(topic, resultLabel(err == nil)).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
