// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package auth

import (
	"context"
	"time"

	"github.com/tomtom215/aeropacer/internal/logging"
)

// StateJanitor periodically removes expired OAuth states. It implements
// suture.Service.
type StateJanitor struct {
	store    StateStore
	interval time.Duration
}

// NewStateJanitor creates a janitor. A non-positive interval defaults to 5 minutes.
func NewStateJanitor(store StateStore, interval time.Duration) *StateJanitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &StateJanitor{store: store, interval: interval}
}

// Serve runs until ctx is canceled.
func (j *StateJanitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *StateJanitor) sweep(ctx context.Context) {
	n, err := j.store.CleanupExpired(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("OAuth state cleanup failed")
		return
	}
	if n > 0 {
		logging.Debug().Int("removed", n).Msg("Removed expired OAuth states")
	}
}

// String implements fmt.Stringer for suture logging.
func (j *StateJanitor) String() string {
	return "oauth-state-janitor"
}
