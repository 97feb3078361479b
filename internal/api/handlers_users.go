// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package api

import (
	"net/http"

	"github.com/tomtom215/aeropacer/internal/auth"
	"github.com/tomtom215/aeropacer/internal/middleware"
	"github.com/tomtom215/aeropacer/internal/users"
)

// GetProfile returns the caller's profile.
//
// @Summary     Get profile
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.APIResponse{data=models.UserResponse}
// @Router      /api/v1/users/profile [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.svc.Users.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, user)
}

// UpdateProfile applies a partial profile update.
//
// @Summary     Update profile
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body users.UpdateProfileInput true "Fields to change"
// @Success     200 {object} models.APIResponse{data=models.UserResponse}
// @Failure     400 {object} models.APIResponse
// @Router      /api/v1/users/profile [put]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var in users.UpdateProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.svc.Users.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, user)
}

// UpdatePreferences merges preference changes.
//
// @Summary     Update preferences
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body users.UpdatePreferencesInput true "Preferences to change"
// @Success     200 {object} models.APIResponse{data=models.UserResponse}
// @Router      /api/v1/users/preferences [put]
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var in users.UpdatePreferencesInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.svc.Users.UpdatePreferences(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, user)
}

// ChangePassword replaces the password after checking the current one.
//
// @Summary     Change password
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body users.ChangePasswordInput true "Current and new password"
// @Success     200 {object} models.APIResponse
// @Failure     401 {object} models.APIResponse
// @Router      /api/v1/users/password [put]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var in users.ChangePasswordInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.svc.Users.ChangePassword(r.Context(), userID, in, middleware.ClientIP(r)); err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, map[string]interface{}{"password_changed": true})
}

// DeleteAccount removes the account and its data, then clears the cookie.
//
// @Summary     Delete account
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body users.DeleteAccountInput true "Password confirmation"
// @Success     200 {object} models.APIResponse
// @Failure     401 {object} models.APIResponse
// @Router      /api/v1/users/account [delete]
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var in users.DeleteAccountInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.svc.Users.DeleteAccount(r.Context(), userID, in); err != nil {
		writeError(w, r, err)
		return
	}

	auth.ClearAuthCookie(w, h.cfg.Security.CookieSecure)
	respondOK(w, r, map[string]interface{}{"deleted": true})
}
