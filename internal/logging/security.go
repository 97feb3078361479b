// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package logging

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// SecurityEvent represents a security-relevant event for audit logging.
type SecurityEvent struct {
	// Event is the type of event (e.g., "login_success", "strava_connected").
	Event string
	// UserID is the user's identifier (if known).
	UserID string
	// Email is the account email (if known). Always masked on output.
	Email string
	// Provider is the credential type: password, jwt or strava.
	Provider string
	// IPAddress is the client's IP address.
	IPAddress string
	// UserAgent is the client's user agent (truncated).
	UserAgent string
	// Success indicates if the operation was successful.
	Success bool
	// Error is the error message if the operation failed.
	Error string
	// Details contains additional key/value pairs, sanitized by key name.
	Details map[string]string
}

// SecurityLogger writes authentication and OAuth audit lines.
// Tokens, emails and secrets are masked before they reach the log.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a new security logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{
		logger: With().Str("component", "auth").Logger(),
	}
}

// NewSecurityLoggerWithLogger creates a security logger with a custom zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// LogEvent logs a security event with automatic sanitization.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	e := l.logger.Info()
	if !event.Success {
		e = l.logger.Warn()
	}
	e = e.Str("event", event.Event)

	if event.Success {
		e = e.Str("status", "success")
	} else {
		e = e.Str("status", "failed")
	}
	if event.UserID != "" {
		e = e.Str("user_id", event.UserID)
	}
	if event.Email != "" {
		e = e.Str("email", SanitizeEmail(event.Email))
	}
	if event.Provider != "" {
		e = e.Str("provider", event.Provider)
	}
	if event.IPAddress != "" {
		e = e.Str("ip", event.IPAddress)
	}
	if event.UserAgent != "" {
		e = e.Str("user_agent", truncateString(event.UserAgent, 100))
	}
	if event.Error != "" && !event.Success {
		e = e.Str("reason", SanitizeError(event.Error))
	}
	for k, v := range event.Details {
		e = e.Str(k, SanitizeValue(k, v))
	}

	e.Msg("security event")
}

// LogRegistered logs a new account registration.
func (l *SecurityLogger) LogRegistered(userID, email, ip string) {
	l.LogEvent(&SecurityEvent{
		Event:     "user_registered",
		UserID:    userID,
		Email:     email,
		Provider:  "password",
		IPAddress: ip,
		Success:   true,
	})
}

// LogLoginSuccess logs a successful login event.
func (l *SecurityLogger) LogLoginSuccess(userID, email, ip, userAgent string) {
	l.LogEvent(&SecurityEvent{
		Event:     "login_success",
		UserID:    userID,
		Email:     email,
		Provider:  "password",
		IPAddress: ip,
		UserAgent: userAgent,
		Success:   true,
	})
}

// LogLoginFailure logs a failed login event.
func (l *SecurityLogger) LogLoginFailure(email, ip, userAgent, reason string) {
	l.LogEvent(&SecurityEvent{
		Event:     "login_failed",
		Email:     email,
		Provider:  "password",
		IPAddress: ip,
		UserAgent: userAgent,
		Error:     reason,
	})
}

// LogTokenRejected logs a bearer token that failed validation.
func (l *SecurityLogger) LogTokenRejected(ip, path, reason string) {
	l.LogEvent(&SecurityEvent{
		Event:     "token_rejected",
		Provider:  "jwt",
		IPAddress: ip,
		Error:     reason,
		Details:   map[string]string{"path": path},
	})
}

// LogPasswordChanged logs a password change.
func (l *SecurityLogger) LogPasswordChanged(userID, ip string) {
	l.LogEvent(&SecurityEvent{
		Event:     "password_changed",
		UserID:    userID,
		Provider:  "password",
		IPAddress: ip,
		Success:   true,
	})
}

// LogStravaConnected logs a completed Strava OAuth exchange.
func (l *SecurityLogger) LogStravaConnected(userID string, athleteID int64, scope string) {
	l.LogEvent(&SecurityEvent{
		Event:    "strava_connected",
		UserID:   userID,
		Provider: "strava",
		Success:  true,
		Details: map[string]string{
			"athlete_id": strconv.FormatInt(athleteID, 10),
			"scope":      scope,
		},
	})
}

// LogStravaDisconnected logs removal of a user's Strava tokens.
func (l *SecurityLogger) LogStravaDisconnected(userID string) {
	l.LogEvent(&SecurityEvent{
		Event:    "strava_disconnected",
		UserID:   userID,
		Provider: "strava",
		Success:  true,
	})
}

// LogStravaTokenRefresh logs a Strava access token refresh.
func (l *SecurityLogger) LogStravaTokenRefresh(userID string, success bool, errMsg string) {
	l.LogEvent(&SecurityEvent{
		Event:    "strava_token_refresh",
		UserID:   userID,
		Provider: "strava",
		Success:  success,
		Error:    errMsg,
	})
}

// LogOAuthStateRejected logs a callback whose state parameter was unknown or expired.
func (l *SecurityLogger) LogOAuthStateRejected(ip, state string) {
	l.LogEvent(&SecurityEvent{
		Event:     "oauth_state_rejected",
		Provider:  "strava",
		IPAddress: ip,
		Error:     "unknown or expired state",
		Details:   map[string]string{"state": state},
	})
}

// LogWebhookRejected records a push event from an unknown subscription.
func (l *SecurityLogger) LogWebhookRejected(subscriptionID, ownerID int64) {
	l.LogEvent(&SecurityEvent{
		Event:    "webhook_rejected",
		Provider: "strava",
		Error:    "unknown subscription",
		Details: map[string]string{
			"subscription_id": strconv.FormatInt(subscriptionID, 10),
			"owner_id":        strconv.FormatInt(ownerID, 10),
		},
	})
}

// SanitizeToken masks a token, showing only first and last 4 characters.
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeEmail masks an email address.
// Example: "jane.runner@example.com" -> "ja***@example.com"
func SanitizeEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return "***" + domain
	}
	return local[:2] + "***" + domain
}

var sensitiveErrorPatterns = []string{
	"password",
	"secret",
	"token",
	"bearer",
	"authorization",
}

// SanitizeError replaces error messages that may leak credentials with a
// generic message and truncates the rest.
func SanitizeError(err string) string {
	lower := strings.ToLower(err)
	for _, pattern := range sensitiveErrorPatterns {
		if strings.Contains(lower, pattern) {
			return "authentication error"
		}
	}
	return truncateString(err, 200)
}

var sensitiveKeys = map[string]bool{
	"access_token":  true,
	"refresh_token": true,
	"token":         true,
	"password":      true,
	"secret":        true,
	"client_secret": true,
	"authorization": true,
	"code":          true,
	"state":         true,
}

// SanitizeValue sanitizes a value based on its key name.
func SanitizeValue(key, value string) string {
	if sensitiveKeys[strings.ToLower(key)] {
		return SanitizeToken(value)
	}
	if strings.Contains(value, "@") && strings.Contains(value, ".") {
		return SanitizeEmail(value)
	}
	return value
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
