// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/aeropacer/internal/auth"
	"github.com/tomtom215/aeropacer/internal/authz"
	"github.com/tomtom215/aeropacer/internal/middleware"
)

// Router mounts the handler's endpoints behind the middleware stack.
type Router struct {
	handler *Handler
	authn   *auth.Middleware
	authz   *authz.Middleware
	limiter *middleware.RateLimiter
	ips     *middleware.ClientIPResolver
}

// NewRouter creates a router. authorizer guards the admin routes; when nil
// they fall back to the admin role claim.
func NewRouter(h *Handler, authn *auth.Middleware, authorizer *authz.Middleware) *Router {
	sec := h.cfg.Security
	return &Router{
		handler: h,
		authn:   authn,
		authz:   authorizer,
		limiter: middleware.NewRateLimiter(sec.RateLimitDisabled),
		ips:     middleware.NewClientIPResolver(sec.TrustedProxies),
	}
}

// Setup builds the chi route tree.
func (rt *Router) Setup() http.Handler {
	h := rt.handler
	sec := h.cfg.Security

	r := chi.NewRouter()

	// Global middleware, outermost first
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(rt.ips.Middleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(sec.CORSOrigins))
	r.Use(chimiddleware.Compress(5, "application/json"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed", nil)
	})

	// Health and operations endpoints are not rate limited.
	r.Get("/health", h.Health)
	r.Get("/health/live", h.HealthLive)
	r.Get("/health/ready", h.HealthReady)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.limiter.Limit("api", sec.RateLimitReqs, sec.RateLimitWindow))

		r.Route("/auth", func(r chi.Router) {
			authLimit := rt.limiter.Limit("auth", sec.AuthRateLimitReqs, sec.RateLimitWindow)
			r.With(authLimit).Post("/register", h.Register)
			r.With(authLimit).Post("/login", h.Login)
			r.With(rt.authn.OptionalAuthenticate).Post("/logout", h.Logout)

			r.Group(func(r chi.Router) {
				r.Use(rt.authn.Authenticate)
				r.Post("/refresh", h.Refresh)
				r.Get("/me", h.Me)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(rt.authn.Authenticate)
			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.UpdateProfile)
			r.Put("/preferences", h.UpdatePreferences)
			r.Put("/password", h.ChangePassword)
			r.Delete("/account", h.DeleteAccount)
		})

		r.Route("/strava", func(r chi.Router) {
			r.Use(h.requireStrava)

			// OAuth redirect and Strava push traffic carry no JWT.
			r.Get("/callback", h.StravaCallback)
			r.Get("/webhook", h.StravaWebhookVerify)
			r.Post("/webhook", h.StravaWebhookEvent)

			r.Group(func(r chi.Router) {
				r.Use(rt.authn.Authenticate)
				r.Get("/connect", h.StravaConnect)
				r.Get("/status", h.StravaStatus)
				r.Post("/sync", h.StravaSync)
				r.Delete("/disconnect", h.StravaDisconnect)
			})
		})

		r.Route("/activities", func(r chi.Router) {
			r.Use(rt.authn.Authenticate)
			r.Get("/", h.ListActivities)
			r.Post("/", h.CreateActivity)
			r.Get("/stats", h.ActivityStats)
			r.Get("/summary", h.ActivitySummary)
			r.Get("/{id}", h.GetActivity)
			r.Put("/{id}", h.UpdateActivity)
			r.Delete("/{id}", h.DeleteActivity)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.With(rt.authn.OptionalAuthenticate).Post("/events", h.TrackEvent)
			r.With(rt.authn.OptionalAuthenticate).Post("/events/batch", h.TrackEventBatch)
			r.With(rt.authn.Authenticate).Get("/events", h.ListMyEvents)
		})

		r.Route("/ml", func(r chi.Router) {
			r.Get("/health", h.MLHealth)

			r.Group(func(r chi.Router) {
				r.Use(rt.authn.Authenticate)
				r.Get("/recommendations", h.MLRecommendations)
				r.Get("/predictions", h.MLPredictions)
				r.Get("/fatigue", h.MLFatigue)
				r.Get("/training-load", h.MLTrainingLoad)
			})
		})

		r.With(rt.authn.AuthenticateWebSocket).Get("/ws", h.WebSocket)

		r.Route("/admin", func(r chi.Router) {
			r.Use(rt.authn.Authenticate)
			r.Use(rt.adminOnly)
			r.Post("/strava/sync-all", h.AdminSyncAll)
			r.Get("/analytics/events", h.AdminListEvents)
			r.Get("/analytics/summary", h.AdminEventSummary)
		})
	})

	return r
}

// adminOnly applies the Casbin policy, or the admin role claim when no
// enforcer is configured.
func (rt *Router) adminOnly(next http.Handler) http.Handler {
	if rt.authz != nil {
		return rt.authz.AuthorizeRequest(next)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok || !claims.IsAdmin() {
			respondError(w, r, http.StatusForbidden, ErrCodeForbidden, "Insufficient permissions", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
