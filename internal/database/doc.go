// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

/*
Package database is the Postgres data layer for AeroPacer.

It owns the connection pool (GORM over the pgx driver), the ordered migration
runner and one repository per aggregate:

  - UserRepository: accounts, credentials and profile JSON
  - ActivityRepository: manual and Strava activities, range queries and aggregates
  - TokenRepository: third-party OAuth credentials (one row per user and provider)
  - EventRepository: analytics events and per-event counts

Repositories return model structs and map driver failures to the sentinel
errors ErrNotFound and ErrDuplicate, so callers never import gorm or pgconn.
Every call is timed into db_query_duration_seconds{operation,table}.

# Migrations

Migrations are named, timestamped pairs of Up/Down SQL applied in order. The
runner records each one in the migrations table inside the same transaction
that applies it, guarded by a transaction-scoped advisory lock so concurrent
replicas starting together apply each migration once.

	db, err := database.Open(ctx, &cfg.Database)
	if err != nil {
	    return err
	}
	defer db.Close()

	if _, err := db.Migrate(ctx); err != nil {
	    return err
	}
*/
package database
