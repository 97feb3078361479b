// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

/*
Package config provides centralized configuration management for AeroPacer.

Configuration is layered with Koanf v2 (highest priority wins):
  - Environment variables
  - YAML config file (CONFIG_PATH, ./config.yaml, /etc/aeropacer/config.yaml)
  - Built-in defaults

# Environment Variables

Server:
  - HTTP_PORT / PORT: Listen port (default: 8080)
  - HTTP_HOST: Bind address (default: 0.0.0.0)
  - ENVIRONMENT: development, staging or production (default: development)
  - FRONTEND_URL: Dashboard URL used after the Strava OAuth callback

Database:
  - DATABASE_URL: Full Postgres URL, or the discrete DATABASE_HOST, DATABASE_PORT,
    DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_SSL_MODE
  - DATABASE_AUTO_MIGRATE: Apply pending migrations at startup (default: true)

Security:
  - JWT_SECRET: 32+ character signing secret (required)
  - SESSION_TIMEOUT: Token lifetime (default: 24h)
  - CORS_ORIGINS: Comma-separated allowed origins

Strava:
  - STRAVA_CLIENT_ID, STRAVA_CLIENT_SECRET, STRAVA_REDIRECT_URI
  - STRAVA_WEBHOOK_VERIFY_TOKEN: Webhook subscription verification token
  - STRAVA_WEBHOOK_SUBSCRIPTION_ID: Accepted push subscription ID (events are rejected until set)

ML service:
  - ML_SERVICE_URL: Base URL of the coaching service (default: http://localhost:8000)

# Example

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	db, err := database.Open(ctx, &cfg.Database)
*/
package config
