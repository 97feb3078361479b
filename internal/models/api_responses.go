// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package models

import "time"

// APIResponse is the envelope returned by every JSON endpoint.
//
//	{
//	  "success": true,
//	  "data": {...},
//	  "meta": {"timestamp": "2026-03-01T08:00:00Z", "request_id": "...", "total": 42, "limit": 20, "offset": 0}
//	}
//
// On failure Data is omitted and Error is populated:
//
//	{
//	  "success": false,
//	  "error": {"code": "VALIDATION_ERROR", "message": "email is required", "request_id": "..."},
//	  "meta": {"timestamp": "2026-03-01T08:00:00Z", "request_id": "..."}
//	}
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    Meta        `json:"meta"`
}

// APIError carries a machine-readable code and human-readable message.
//
// Codes: VALIDATION_ERROR, BAD_REQUEST, UNAUTHORIZED, FORBIDDEN, NOT_FOUND,
// CONFLICT, STRAVA_NOT_CONNECTED, SYNC_IN_PROGRESS, RATE_LIMIT_EXCEEDED,
// EXTERNAL_SERVICE_ERROR, DATABASE_ERROR, INTERNAL_ERROR.
type APIError struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// Meta is response metadata. Pagination fields are only set on list endpoints.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	Total     *int64    `json:"total,omitempty"`
	Limit     *int      `json:"limit,omitempty"`
	Offset    *int      `json:"offset,omitempty"`
}

// Page describes a slice of a larger result set.
type Page struct {
	Total  int64
	Limit  int
	Offset int
}
