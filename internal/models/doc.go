// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

/*
Package models defines the persistent entities and API payload shapes for AeroPacer.

Database models map one-to-one onto the Postgres tables created by the
migrations in internal/database:

  - User: account, role, JSONB preferences and profile
  - Activity: one workout, manual or imported from Strava
  - AuthToken: third-party OAuth credentials (Strava)
  - AnalyticsEvent: product analytics, kept anonymised when a user is deleted
  - Migration: applied schema migration bookkeeping

JSONB columns use gorm.io/datatypes JSONType so the Go structs are
marshalled transparently:

	user.Preferences = datatypes.NewJSONType(models.DefaultPreferences())

API payloads (APIResponse, APIError, Meta, UserResponse, stats rollups) live
here too so handlers and services share one definition.
*/
package models
