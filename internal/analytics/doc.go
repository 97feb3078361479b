// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

// Package analytics records product analytics events from clients and from
// the backend itself, and serves per-user listings and admin summaries.
package analytics
