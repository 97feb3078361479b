// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

// Package users implements profile and account management for signed-in
// runners: profile and preference updates, password changes and account
// deletion.
//
// Partial updates use pointer fields; a nil field leaves the stored value
// untouched. Range checks run through internal/validation struct tags, with
// the resting/max heart rate relation checked against the merged profile.
package users
