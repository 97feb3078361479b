// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

/*
Package api exposes the AeroPacer HTTP surface.

Routes are mounted on a chi router under /api/v1. Every JSON response uses
the envelope defined in internal/models:

	{"success": true, "data": {...}, "meta": {"timestamp": "...", "request_id": "..."}}

List endpoints add total, limit and offset to meta. Errors carry a
machine-readable code:

	VALIDATION_ERROR        400  request failed field validation
	BAD_REQUEST             400  malformed JSON or parameters
	UNAUTHORIZED            401  missing or invalid credentials
	FORBIDDEN               403  authenticated but not allowed
	NOT_FOUND               404  resource does not exist
	CONFLICT                409  duplicate resource
	STRAVA_NOT_CONNECTED    409  no active Strava link
	SYNC_IN_PROGRESS        409  a sync for the user is already running
	RATE_LIMIT_EXCEEDED     429  too many requests
	EXTERNAL_SERVICE_ERROR  502  Strava or the coaching service failed
	INTERNAL_ERROR          500  anything else

Domain errors are mapped to codes in one place (see writeError) so handlers
only return the service error.

Middleware order (outermost first):

	RequestID -> Recoverer -> ClientIP -> AccessLog -> PrometheusMetrics ->
	SecurityHeaders -> CORS -> Compress -> rate limit -> auth
*/
package api
