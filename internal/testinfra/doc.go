// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

// Package testinfra provides shared test infrastructure.
//
// # Postgres Container (integration build tag)
//
// NewPostgresContainer starts a disposable Postgres via testcontainers-go so
// repository and migration tests run against the real database:
//
//	//go:build integration
//
//	func TestActivityRepository(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//
//	    db, err := database.Open(ctx, &config.DatabaseConfig{URL: pg.DSN, ...})
//	}
//
// Run with: go test -tags integration ./...
//
// # Strava API Fake
//
// MockStravaServer is an httptest server that speaks the subset of the
// Strava API used by the sync pipeline (OAuth token exchange and refresh,
// deauthorize, athlete, athlete activities). It records every request and
// can be told to answer the next N requests with 429.
package testinfra
