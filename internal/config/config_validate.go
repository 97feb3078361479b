// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks the configuration for missing or malformed values.
// Validators run in order and the first failure is returned.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateSecurity,
		c.validateStrava,
		c.validateML,
		c.validateSync,
		c.validateEvents,
		c.validateStateStore,
		c.validateAPI,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

var validEnvironments = map[string]bool{
	"development": true,
	"staging":     true,
	"production":  true,
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if !validEnvironments[c.Server.Environment] {
		return fmt.Errorf("ENVIRONMENT must be one of: development, staging, production")
	}
	if c.Server.FrontendURL != "" {
		if err := validateHTTPURL(c.Server.FrontendURL, "FRONTEND_URL"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.URL == "" && (c.Database.Host == "" || c.Database.Name == "") {
		return fmt.Errorf("DATABASE_URL or DATABASE_HOST and DATABASE_NAME are required")
	}
	if c.Database.URL != "" {
		if err := validatePostgresURL(c.Database.URL); err != nil {
			return fmt.Errorf("DATABASE_URL is invalid: %w", err)
		}
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DATABASE_MAX_OPEN_CONNS must be at least 1")
	}
	if c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("DATABASE_MAX_IDLE_CONNS must be between 0 and DATABASE_MAX_OPEN_CONNS")
	}
	return nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
	minJWTSecretLength   = 32
)

func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.IsProduction() && containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value; generate one with: openssl rand -base64 48")
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}
	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production; " +
			"set specific origins: CORS_ORIGINS=https://app.example.com")
	}
	return c.validateRateLimits()
}

// hasWildcardCORS checks if CORS is configured with wildcard origins
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	if c.Security.AuthRateLimitReqs < minRateLimitRequests {
		return fmt.Errorf("AUTH_RATE_LIMIT must be at least %d", minRateLimitRequests)
	}
	return nil
}

func (c *Config) validateStrava() error {
	if !c.Strava.Enabled {
		return nil
	}
	if c.Strava.ClientID == "" || c.Strava.ClientSecret == "" {
		return fmt.Errorf("STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET are required when STRAVA_ENABLED=true")
	}
	if c.Strava.RedirectURI == "" {
		return fmt.Errorf("STRAVA_REDIRECT_URI is required when STRAVA_ENABLED=true")
	}
	if err := validateCallbackURL(c.Strava.RedirectURI, "STRAVA_REDIRECT_URI"); err != nil {
		return err
	}
	if err := validateHTTPURL(c.Strava.BaseURL, "STRAVA_BASE_URL"); err != nil {
		return err
	}
	if c.Strava.RateLimit < 1 {
		return fmt.Errorf("STRAVA_RATE_LIMIT must be at least 1")
	}
	if c.Strava.RateLimitBurst < 1 {
		return fmt.Errorf("STRAVA_RATE_LIMIT_BURST must be at least 1")
	}
	if c.Strava.StateTTL <= 0 {
		return fmt.Errorf("STRAVA_STATE_TTL must be positive")
	}
	if c.Strava.WebhookSubscriptionID < 0 {
		return fmt.Errorf("STRAVA_WEBHOOK_SUBSCRIPTION_ID must not be negative")
	}
	if c.Strava.WebhookSubscriptionID > 0 && c.Strava.WebhookVerifyToken == "" {
		return fmt.Errorf("STRAVA_WEBHOOK_VERIFY_TOKEN is required when STRAVA_WEBHOOK_SUBSCRIPTION_ID is set")
	}
	return nil
}

func (c *Config) validateML() error {
	if !c.ML.Enabled {
		return nil
	}
	if c.ML.URL == "" {
		return fmt.Errorf("ML_SERVICE_URL is required when ML_ENABLED=true")
	}
	if err := validateHTTPURL(c.ML.URL, "ML_SERVICE_URL"); err != nil {
		return err
	}
	if c.ML.Timeout <= 0 {
		return fmt.Errorf("ML_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.Interval < 0 {
		return fmt.Errorf("SYNC_INTERVAL must not be negative (0 disables periodic sync)")
	}
	if c.Sync.Interval > 0 && c.Sync.Interval < time.Minute {
		return fmt.Errorf("SYNC_INTERVAL must be at least 1m")
	}
	if c.Sync.PageSize < 1 || c.Sync.PageSize > 200 {
		return fmt.Errorf("SYNC_PAGE_SIZE must be between 1 and 200")
	}
	if c.Sync.MaxPages < 1 {
		return fmt.Errorf("SYNC_MAX_PAGES must be at least 1")
	}
	if c.Sync.Lookback <= 0 {
		return fmt.Errorf("SYNC_LOOKBACK must be positive")
	}
	if len(c.Sync.ActivityTypes) == 0 {
		return fmt.Errorf("SYNC_ACTIVITY_TYPES must list at least one activity type")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if c.Events.Embedded {
		if c.Events.EmbeddedPort < -1 || c.Events.EmbeddedPort > 65535 {
			return fmt.Errorf("NATS_EMBEDDED_PORT must be between -1 and 65535")
		}
		return nil
	}
	if c.Events.NATSURL == "" {
		return nil
	}
	if err := validateNATSURL(c.Events.NATSURL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	return nil
}

func (c *Config) validateStateStore() error {
	switch c.StateStore.Backend {
	case "memory":
		return nil
	case "badger":
		if c.StateStore.Path == "" {
			return fmt.Errorf("STATE_STORE_PATH is required when STATE_STORE=badger")
		}
		return nil
	default:
		return fmt.Errorf("STATE_STORE must be one of: memory, badger")
	}
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be at least 1")
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API_MAX_PAGE_SIZE must be greater than or equal to API_DEFAULT_PAGE_SIZE")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// IsDevelopment returns true if the application is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// placeholderMarkers are substrings found in copy-pasted example secrets.
var placeholderMarkers = []string{
	"changeme",
	"change_me",
	"replace",
	"your-secret",
	"your_secret",
	"example",
	"placeholder",
}

// containsPlaceholder reports whether a secret looks like an unedited example value.
func containsPlaceholder(value string) bool {
	lower := strings.ToLower(value)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
