// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package authz

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aeropacer/internal/auth"
	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/metrics"
	"github.com/tomtom215/aeropacer/internal/models"
)

// Middleware provides authorization middleware using Casbin.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// Authorize enforces a fixed object and action for the wrapped handler.
func (m *Middleware) Authorize(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.check(w, r, object, action, next)
		})
	}
}

// AuthorizeRequest derives the action from the HTTP method and uses the
// request path as the object.
func (m *Middleware) AuthorizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.check(w, r, r.URL.Path, methodToAction(r.Method), next)
	})
}

func (m *Middleware) check(w http.ResponseWriter, r *http.Request, object, action string, next http.Handler) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeForbidden(w, r, "No authentication context")
		return
	}

	allowed, err := m.enforcer.EnforceRole(claims.Role, object, action)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	metrics.RecordAuthzDecision(claims.Role, allowed)

	if !allowed {
		logging.Ctx(r.Context()).Warn().
			Str("role", claims.Role).
			Str("object", object).
			Str("action", action).
			Msg("Authorization denied")
		writeForbidden(w, r, "Insufficient permissions")
		return
	}

	next.ServeHTTP(w, r)
}

// methodToAction maps HTTP methods to Casbin actions.
func methodToAction(method string) string {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return "write"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

func writeForbidden(w http.ResponseWriter, r *http.Request, message string) {
	requestID := logging.RequestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Success: false,
		Error: &models.APIError{
			Code:      "FORBIDDEN",
			Message:   message,
			RequestID: requestID,
		},
		Meta: models.Meta{Timestamp: time.Now().UTC(), RequestID: requestID},
	})
}
