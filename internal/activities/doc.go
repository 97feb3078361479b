// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

/*
Package activities implements activity CRUD and the weekly and monthly
statistics built on top of it.

Rollups are a single linear pass over the user's activities in the requested
window. Weeks start on Monday and months on the 1st, both in the user's
configured time zone. Buckets without activities are still emitted so charts
get a continuous axis.

Stats and summaries are cached per user (see StatsCache). Any write through
this package drops the user's cached entries; Strava syncs do the same through
the event bus.
*/
package activities
