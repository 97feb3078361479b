// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

// Package main provides the AeroPacer HTTP server
//
// @title AeroPacer API
// @version 1.0
// @description Running activity tracking, Strava sync and training insights.
// @description
// @description ## Authentication
// @description
// @description Protected endpoints accept a JWT in the `Authorization: Bearer` header or
// @description the `token` HTTP-only cookie set by `/api/v1/auth/login`.
// @description
// @description ## Rate Limiting
// @description
// @description All `/api/v1` routes are limited per client IP. Registration and login have a
// @description stricter limit. Exceeding it returns 429 with `RATE_LIMIT_EXCEEDED`.
// @description
// @description ## Error Responses
// @description
// @description ```json
// @description {
// @description   "success": false,
// @description   "error": {
// @description     "code": "ERROR_CODE",
// @description     "message": "Human-readable error message",
// @description     "details": {}
// @description   },
// @description   "meta": {
// @description     "timestamp": "2026-05-01T12:34:56Z",
// @description     "request_id": "..."
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/aeropacer/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT access token, prefixed with "Bearer ".
//
// @tag.name health
// @tag.description Liveness and readiness probes
//
// @tag.name auth
// @tag.description Registration, login and session management
//
// @tag.name users
// @tag.description Profile and preference management
//
// @tag.name strava
// @tag.description Strava connection, sync and webhooks
//
// @tag.name activities
// @tag.description Activity CRUD, statistics and summaries
//
// @tag.name analytics
// @tag.description Product analytics event tracking
//
// @tag.name ml
// @tag.description Coaching recommendations and predictions
//
// @tag.name admin
// @tag.description Administrative operations, admin role required
//
// @tag.name websocket
// @tag.description Live notifications
package main
