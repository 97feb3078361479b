// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/tomtom215/aeropacer/internal/auth"
	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/middleware"
	"github.com/tomtom215/aeropacer/internal/strava"
)

// stravaRedirectPath is where the frontend shows the connection result.
const stravaRedirectPath = "/settings/integrations"

// requireStrava answers 503 on every Strava route when the integration is off.
func (h *Handler) requireStrava(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.svc.Strava == nil {
			respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "strava integration is disabled", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StravaConnect returns the Strava authorization URL for the caller.
//
// @Summary     Start Strava OAuth
// @Tags        strava
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.APIResponse
// @Router      /api/v1/strava/connect [get]
func (h *Handler) StravaConnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	authURL, err := h.svc.Strava.AuthorizeURL(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, map[string]string{"authorization_url": authURL})
}

// StravaCallback completes OAuth and redirects the browser to the frontend
// with strava=connected or strava=error&reason=....
//
// @Summary     Strava OAuth callback
// @Tags        strava
// @Param       state query string true  "OAuth state"
// @Param       code  query string false "Authorization code"
// @Param       scope query string false "Granted scope"
// @Param       error query string false "Error from Strava"
// @Success     302
// @Router      /api/v1/strava/callback [get]
func (h *Handler) StravaCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := strava.CallbackInput{
		State: q.Get("state"),
		Code:  q.Get("code"),
		Scope: q.Get("scope"),
		Error: q.Get("error"),
		IP:    middleware.ClientIP(r),
	}

	params := url.Values{}
	if _, err := h.svc.Strava.HandleCallback(r.Context(), in); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Strava OAuth callback failed")
		params.Set("strava", "error")
		params.Set("reason", callbackReason(err))
	} else {
		params.Set("strava", "connected")
	}

	http.Redirect(w, r, h.frontendURL(stravaRedirectPath, params), http.StatusFound)
}

func callbackReason(err error) string {
	switch {
	case errors.Is(err, strava.ErrAuthorizationDenied):
		return "denied"
	case errors.Is(err, strava.ErrInvalidState), errors.Is(err, auth.ErrStateNotFound), errors.Is(err, auth.ErrStateExpired):
		return "invalid_state"
	default:
		return "failed"
	}
}

func (h *Handler) frontendURL(path string, params url.Values) string {
	base := strings.TrimRight(h.cfg.Server.FrontendURL, "/")
	target := base + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	return target
}

// StravaStatus reports whether the caller has an active Strava link.
//
// @Summary     Strava status
// @Tags        strava
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.APIResponse{data=strava.Status}
// @Router      /api/v1/strava/status [get]
func (h *Handler) StravaStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	status, err := h.svc.Strava.Status(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, status)
}

// StravaSync imports new activities for the caller. full=true re-reads the
// whole lookback window.
//
// @Summary     Sync Strava activities
// @Tags        strava
// @Produce     json
// @Security    BearerAuth
// @Param       full query bool false "Ignore previously imported activities"
// @Success     200 {object} models.APIResponse{data=strava.SyncResult}
// @Failure     409 {object} models.APIResponse
// @Failure     502 {object} models.APIResponse
// @Router      /api/v1/strava/sync [post]
func (h *Handler) StravaSync(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	full, err := queryBool(r, "full")
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.svc.Strava.Sync(r.Context(), userID, strava.SyncOptions{Full: full})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, result)
}

// StravaDisconnect revokes the Strava link.
//
// @Summary     Disconnect Strava
// @Tags        strava
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.APIResponse
// @Router      /api/v1/strava/disconnect [delete]
func (h *Handler) StravaDisconnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if err := h.svc.Strava.Disconnect(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, map[string]interface{}{"connected": false})
}

// StravaWebhookVerify answers Strava's subscription challenge. The body is
// the bare {"hub.challenge": ...} object Strava expects, not the envelope.
//
// @Summary     Verify webhook subscription
// @Tags        strava
// @Produce     json
// @Param       hub.mode         query string true "subscribe"
// @Param       hub.verify_token query string true "Shared verify token"
// @Param       hub.challenge    query string true "Challenge to echo"
// @Success     200 {object} map[string]string
// @Failure     403 {object} models.APIResponse
// @Router      /api/v1/strava/webhook [get]
func (h *Handler) StravaWebhookVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	challenge, err := h.svc.Strava.VerifyWebhook(q.Get("hub.mode"), q.Get("hub.verify_token"), q.Get("hub.challenge"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"hub.challenge": challenge})
}

// StravaWebhookEvent receives a push event. Events from any subscription
// other than the configured one get 403.
//
// @Summary     Receive webhook event
// @Tags        strava
// @Accept      json
// @Produce     json
// @Param       body body strava.WebhookEvent true "Event"
// @Success     200 {object} models.APIResponse
// @Failure     403 {object} models.APIResponse
// @Router      /api/v1/strava/webhook [post]
func (h *Handler) StravaWebhookEvent(w http.ResponseWriter, r *http.Request) {
	var ev strava.WebhookEvent
	if err := decodeExternalJSON(w, r, &ev); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.svc.Strava.HandleWebhookEvent(r.Context(), ev); err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, map[string]interface{}{"received": true})
}

// AdminSyncAll queues a sync pass over every connected user.
//
// @Summary     Sync all users
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Success     202 {object} models.APIResponse
// @Failure     403 {object} models.APIResponse
// @Router      /api/v1/admin/strava/sync-all [post]
func (h *Handler) AdminSyncAll(w http.ResponseWriter, r *http.Request) {
	if h.svc.SyncAll == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "strava sync is disabled", nil)
		return
	}
	h.svc.SyncAll.TriggerAll()
	respondJSON(w, r, http.StatusAccepted, map[string]interface{}{"queued": true})
}
