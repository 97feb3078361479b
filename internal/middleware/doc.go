// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

/*
Package middleware provides the HTTP middleware shared by every route.

Stack, outermost first, as mounted by the api router:

	RequestID        X-Request-ID header and logging context
	ClientIP         resolves the caller address behind trusted proxies
	AccessLog        one zerolog line per request
	PrometheusMetrics  api_requests_total / api_request_duration_seconds
	SecurityHeaders  nosniff, frame deny, referrer policy, HSTS on TLS
	CORS             go-chi/cors with configured origins
	RateLimit        go-chi/httprate keyed by client IP

Rate limit rejections use the standard JSON envelope with code
RATE_LIMIT_EXCEEDED so clients can handle every error the same way.
*/
package middleware
