// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/aeropacer/internal/activities"
	"github.com/tomtom215/aeropacer/internal/auth"
	"github.com/tomtom215/aeropacer/internal/circuitbreaker"
	"github.com/tomtom215/aeropacer/internal/database"
	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/ml"
	"github.com/tomtom215/aeropacer/internal/strava"
	"github.com/tomtom215/aeropacer/internal/users"
	"github.com/tomtom215/aeropacer/internal/validation"
)

// apiError is a resolved HTTP error.
type apiError struct {
	status  int
	code    string
	message string
	details map[string]interface{}
}

// classify maps a service error onto a status and code. Unknown errors
// become INTERNAL_ERROR without leaking their text.
func classify(err error) apiError {
	var br *badRequest
	if errors.As(err, &br) {
		return apiError{http.StatusBadRequest, ErrCodeBadRequest, br.msg, nil}
	}

	var verr *validation.RequestValidationError
	if errors.As(err, &verr) && verr != nil {
		ae := verr.ToAPIError()
		return apiError{http.StatusBadRequest, ae.Code, ae.Message, ae.Details}
	}

	var stravaErr *strava.APIError
	var mlErr *ml.APIError

	switch {
	case errors.Is(err, auth.ErrWeakPassword):
		return apiError{http.StatusBadRequest, ErrCodeValidation, "password does not meet policy", map[string]interface{}{"field": "password"}}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return apiError{http.StatusUnauthorized, ErrCodeUnauthorized, "invalid email or password", nil}
	case errors.Is(err, auth.ErrAccountDisabled):
		return apiError{http.StatusUnauthorized, ErrCodeUnauthorized, "account is disabled", nil}
	case errors.Is(err, auth.ErrEmailTaken):
		return apiError{http.StatusConflict, ErrCodeConflict, "email already registered", nil}

	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, users.ErrUserNotFound):
		return apiError{http.StatusNotFound, ErrCodeNotFound, "user not found", nil}
	case errors.Is(err, activities.ErrActivityNotFound):
		return apiError{http.StatusNotFound, ErrCodeNotFound, "activity not found", nil}

	case errors.Is(err, strava.ErrNotConnected):
		return apiError{http.StatusConflict, ErrCodeStravaNotConnected, "strava account not connected", nil}
	case errors.Is(err, strava.ErrSyncInProgress):
		return apiError{http.StatusConflict, ErrCodeSyncInProgress, "a strava sync is already running", nil}
	case errors.Is(err, strava.ErrInvalidState), errors.Is(err, auth.ErrStateNotFound), errors.Is(err, auth.ErrStateExpired):
		return apiError{http.StatusBadRequest, ErrCodeBadRequest, "invalid or expired oauth state", nil}
	case errors.Is(err, strava.ErrAuthorizationDenied):
		return apiError{http.StatusBadRequest, ErrCodeBadRequest, "strava authorization was denied", nil}
	case errors.Is(err, strava.ErrWebhookVerification):
		return apiError{http.StatusForbidden, ErrCodeWebhookVerification, "webhook verification failed", nil}

	case errors.Is(err, ml.ErrUnsupportedDistance):
		return apiError{http.StatusBadRequest, ErrCodeBadRequest, "distance must be one of 5k, 10k, half, marathon", nil}

	case errors.As(err, &stravaErr):
		return apiError{http.StatusBadGateway, ErrCodeExternalService, "strava request failed", map[string]interface{}{"service": "strava", "status": stravaErr.StatusCode}}
	case errors.As(err, &mlErr):
		return apiError{http.StatusBadGateway, ErrCodeExternalService, "coaching service request failed", map[string]interface{}{"service": "ml", "status": mlErr.StatusCode}}
	case circuitbreaker.IsOpen(err):
		return apiError{http.StatusBadGateway, ErrCodeExternalService, "upstream service temporarily unavailable", nil}

	case errors.Is(err, database.ErrNotFound):
		return apiError{http.StatusNotFound, ErrCodeNotFound, "resource not found", nil}
	case errors.Is(err, database.ErrDuplicate):
		return apiError{http.StatusConflict, ErrCodeConflict, "resource already exists", nil}
	case errors.Is(err, context.DeadlineExceeded):
		return apiError{http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "request timed out", nil}
	}

	return apiError{http.StatusInternalServerError, ErrCodeInternal, "internal server error", nil}
}

// writeError maps err onto the envelope. Server-side failures are logged with
// the request ID; client errors are not.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae := classify(err)
	if ae.status >= http.StatusInternalServerError || ae.status == http.StatusBadGateway {
		logging.Ctx(r.Context()).Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ae.status).
			Msg("Request failed")
	}
	respondError(w, r, ae.status, ae.code, ae.message, ae.details)
}
