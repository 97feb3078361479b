// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/metrics"
	"github.com/tomtom215/aeropacer/internal/models"
)

type contextKey string

// ClaimsContextKey holds *Claims on authenticated requests.
const ClaimsContextKey contextKey = "claims"

// CookieName is the auth cookie set by login and register.
const CookieName = "token"

var (
	errMissingToken = errors.New("missing token")
	errBadHeader    = errors.New("invalid authorization header")
)

// Middleware authenticates requests with JWTs.
type Middleware struct {
	jwtManager *JWTManager
	security   *logging.SecurityLogger
}

// NewMiddleware creates authentication middleware.
func NewMiddleware(jwtManager *JWTManager) *Middleware {
	return &Middleware{
		jwtManager: jwtManager,
		security:   logging.NewSecurityLogger(),
	}
}

// ContextWithClaims attaches claims and the user ID to ctx.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, ClaimsContextKey, claims)
	return logging.ContextWithUserID(ctx, claims.UserID)
}

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

// Authenticate rejects requests without a valid token with 401.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return m.authenticate(next, false)
}

// AuthenticateWebSocket is Authenticate that also accepts ?token= because
// browsers cannot set headers on WebSocket upgrades.
func (m *Middleware) AuthenticateWebSocket(next http.Handler) http.Handler {
	return m.authenticate(next, true)
}

func (m *Middleware) authenticate(next http.Handler, allowQuery bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := TokenFromRequest(r, allowQuery)
		if err != nil {
			metrics.AuthTokensRejected.WithLabelValues("missing").Inc()
			writeUnauthorized(w, r, "Authentication required")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			reason := rejectionReason(err)
			metrics.AuthTokensRejected.WithLabelValues(reason).Inc()
			m.security.LogTokenRejected(clientIP(r), r.URL.Path, reason)
			writeUnauthorized(w, r, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

// OptionalAuthenticate attaches claims when a valid token is present and
// otherwise serves the request anonymously.
func (m *Middleware) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := TokenFromRequest(r, false)
		if err == nil {
			claims, verr := m.jwtManager.ValidateToken(token)
			if verr == nil {
				r = r.WithContext(ContextWithClaims(r.Context(), claims))
			} else {
				logging.Ctx(r.Context()).Debug().Str("reason", rejectionReason(verr)).Msg("Ignoring invalid optional token")
			}
		}
		next.ServeHTTP(w, r)
	})
}

// TokenFromRequest extracts a JWT from the Authorization header, the auth
// cookie or, when allowQuery is set, the token query parameter.
func TokenFromRequest(r *http.Request, allowQuery bool) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", errBadHeader
		}
		return parts[1], nil
	}
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	if allowQuery {
		if token := r.URL.Query().Get("token"); token != "" {
			return token, nil
		}
	}
	return "", errMissingToken
}

// SetAuthCookie stores the token in an HTTP-only cookie.
func SetAuthCookie(w http.ResponseWriter, token string, expiresAt time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookie expires the auth cookie.
func ClearAuthCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	requestID := logging.RequestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="aeropacer"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Success: false,
		Error: &models.APIError{
			Code:      "UNAUTHORIZED",
			Message:   message,
			RequestID: requestID,
		},
		Meta: models.Meta{Timestamp: time.Now().UTC(), RequestID: requestID},
	})
}
