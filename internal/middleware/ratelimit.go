// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package middleware

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/metrics"
	"github.com/tomtom215/aeropacer/internal/models"
)

// RateLimiter builds per-IP httprate limiters that answer with the JSON envelope.
type RateLimiter struct {
	disabled bool
}

// NewRateLimiter creates a RateLimiter. When disabled every limiter is a no-op.
func NewRateLimiter(disabled bool) *RateLimiter {
	return &RateLimiter{disabled: disabled}
}

// Limit allows requests per window for each client IP. name labels the
// api_rate_limit_hits_total metric.
func (l *RateLimiter) Limit(name string, requests int, window time.Duration) func(http.Handler) http.Handler {
	if l.disabled || requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(keyByClientIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(name).Inc()
			writeRateLimited(w, r)
		}),
	)
}

func keyByClientIP(r *http.Request) (string, error) {
	return ClientIP(r), nil
}

func writeRateLimited(w http.ResponseWriter, r *http.Request) {
	requestID := logging.RequestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Success: false,
		Error: &models.APIError{
			Code:      "RATE_LIMIT_EXCEEDED",
			Message:   "Too many requests, please retry later",
			RequestID: requestID,
		},
		Meta: models.Meta{Timestamp: time.Now().UTC(), RequestID: requestID},
	})
}
