// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

/*
Package cache provides a thread-safe in-memory TTL cache.

It backs the activity stats and summary endpoints, whose aggregates are
expensive to recompute and change only when a user's activities change.

Keys are namespaced per user ("stats:<user-id>:...") so that an activity
change or a Strava sync can drop everything cached for that user with
DeletePrefix. Expiration is lazy on Get, plus a background sweep that runs
until Close.

Hits, misses, size and invalidations are exported per cache name through
the cache_* Prometheus metrics.

# Usage Example

	stats := cache.New("stats", 5*time.Minute)
	defer stats.Close()

	key := cache.GenerateKey("stats:"+userID.String(), params)
	if v, ok := stats.Get(key); ok {
	    return v.(*models.StatsResponse), nil
	}
	stats.Set(key, resp)

	stats.DeletePrefix("stats:" + userID.String())
*/
package cache
