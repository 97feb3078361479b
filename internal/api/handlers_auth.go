// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package api

import (
	"net/http"

	"github.com/tomtom215/aeropacer/internal/auth"
	"github.com/tomtom215/aeropacer/internal/middleware"
)

func clientInfo(r *http.Request) auth.ClientInfo {
	return auth.ClientInfo{
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func (h *Handler) setSession(w http.ResponseWriter, s *auth.Session) {
	auth.SetAuthCookie(w, s.Token, s.ExpiresAt, h.cfg.Security.CookieSecure)
}

// Register creates an account and signs the caller in.
//
// @Summary     Register
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       body body auth.RegisterInput true "Account details"
// @Success     201 {object} models.APIResponse{data=auth.Session}
// @Failure     400 {object} models.APIResponse
// @Failure     409 {object} models.APIResponse
// @Router      /api/v1/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.svc.Auth.Register(r.Context(), in, clientInfo(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setSession(w, session)
	respondCreated(w, r, session)
}

// Login exchanges credentials for a session token.
//
// @Summary     Login
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       body body auth.LoginInput true "Credentials"
// @Success     200 {object} models.APIResponse{data=auth.Session}
// @Failure     401 {object} models.APIResponse
// @Router      /api/v1/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.svc.Auth.Login(r.Context(), in, clientInfo(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setSession(w, session)
	respondOK(w, r, session)
}

// Logout clears the auth cookie. Bearer tokens stay valid until they expire.
//
// @Summary     Logout
// @Tags        auth
// @Produce     json
// @Success     200 {object} models.APIResponse
// @Router      /api/v1/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearAuthCookie(w, h.cfg.Security.CookieSecure)

	if userID := optionalUser(r); userID != nil && h.svc.Analytics != nil {
		h.svc.Analytics.TrackInternal(r.Context(), *userID, "user_logout", nil)
	}

	respondOK(w, r, map[string]interface{}{"logged_out": true})
}

// Refresh re-issues a token for the current session.
//
// @Summary     Refresh token
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.APIResponse{data=auth.Session}
// @Failure     401 {object} models.APIResponse
// @Router      /api/v1/auth/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required", nil)
		return
	}

	session, err := h.svc.Auth.Refresh(r.Context(), claims)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setSession(w, session)
	respondOK(w, r, session)
}

// Me returns the authenticated user.
//
// @Summary     Current user
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.APIResponse{data=models.UserResponse}
// @Router      /api/v1/auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.svc.Auth.Me(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, user)
}
