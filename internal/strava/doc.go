// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

/*
Package strava connects AeroPacer accounts to Strava.

It covers the OAuth 2.0 authorization code flow (authorize URL, callback,
token refresh, deauthorization), incremental activity sync, the periodic sync
scheduler, and the push subscription webhook.

Outbound calls go through Client, which combines a token bucket sized to
Strava's 15 minute quota, a circuit breaker, and 429 retry with Retry-After:

	client := strava.NewClient(&cfg.Strava)
	svc := strava.NewService(cfg, client, states, tokenRepo, userRepo, activityRepo, bus)
	sched := strava.NewScheduler(svc, cfg.Sync.Interval)

Sync is incremental: it starts from the newest stored Strava activity minus
SYNC_OVERLAP, or SYNC_LOOKBACK for the first run, and skips activities whose
external ID is already stored. Only one sync per user runs at a time.

Webhook events are accepted only when they carry the subscription ID set in
STRAVA_WEBHOOK_SUBSCRIPTION_ID.
*/
package strava
