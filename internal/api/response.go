// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/models"
)

// Error codes for API responses
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeStravaNotConnected  = "STRAVA_NOT_CONNECTED"
	ErrCodeSyncInProgress      = "SYNC_IN_PROGRESS"
	ErrCodeRateLimited         = "RATE_LIMIT_EXCEEDED"
	ErrCodeExternalService     = "EXTERNAL_SERVICE_ERROR"
	ErrCodeDatabase            = "DATABASE_ERROR"
	ErrCodeInternal            = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	ErrCodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	ErrCodeRequestTooLarge     = "REQUEST_TOO_LARGE"
	ErrCodeUnsupportedMedia    = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodeWebhookVerification = "WEBHOOK_VERIFICATION_FAILED"
)

func newMeta(r *http.Request) models.Meta {
	return models.Meta{
		Timestamp: time.Now().UTC(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
}

// writeJSON encodes body with the given status. Encoding failures are logged;
// the header is already on the wire by then.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to encode response")
	}
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeJSON(w, r, status, models.APIResponse{
		Success: true,
		Data:    data,
		Meta:    newMeta(r),
	})
}

func respondOK(w http.ResponseWriter, r *http.Request, data interface{}) {
	respondJSON(w, r, http.StatusOK, data)
}

func respondCreated(w http.ResponseWriter, r *http.Request, data interface{}) {
	respondJSON(w, r, http.StatusCreated, data)
}

// respondPage writes a list response with pagination metadata.
func respondPage(w http.ResponseWriter, r *http.Request, data interface{}, page models.Page) {
	meta := newMeta(r)
	total, limit, offset := page.Total, page.Limit, page.Offset
	meta.Total = &total
	meta.Limit = &limit
	meta.Offset = &offset

	writeJSON(w, r, http.StatusOK, models.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	meta := newMeta(r)
	writeJSON(w, r, status, models.APIResponse{
		Success: false,
		Error: &models.APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: meta.RequestID,
		},
		Meta: meta,
	})
}
