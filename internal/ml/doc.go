// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

/*
Package ml proxies coaching requests to the external ML service.

Every operation has a local fallback. When the service is disabled, fails,
times out or its circuit breaker is open, the fallback answer is returned
with Source set to "fallback" instead of an error. Only failures loading the
user's own data are reported to the caller.

Local fallbacks:
  - TrainingLoad: acute (7 day) and chronic (28 day) mean daily effort
  - Predictions: Riegel's formula from the best recent run
  - Recommendations: a getting-started plan, or consistency plus load advice
  - Fatigue: a fixed moderate estimate
*/
package ml
