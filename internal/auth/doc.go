// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

/*
Package auth implements AeroPacer account authentication.

It covers:
  - Password hashing and verification with bcrypt (cost 12)
  - HS256 JWT issuance and validation (JWTManager)
  - Register, Login, Me and Refresh flows (Service)
  - HTTP middleware that authenticates requests from a Bearer header, the
    "token" cookie or, for WebSocket upgrades, the "token" query parameter
  - One-time OAuth state parameters for third-party connections (StateStore),
    persisted in memory or in BadgerDB, with a supervised cleanup janitor

Handlers read the authenticated principal with ClaimsFromContext. Role checks
beyond "is authenticated" live in the authz package.
*/
package auth
