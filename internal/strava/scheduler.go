// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package strava

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/aeropacer/internal/logging"
)

const (
	schedulerQueueSize = 128
	perUserSyncTimeout = 5 * time.Minute
)

// syncer is the part of Service the scheduler drives.
type syncer interface {
	Sync(ctx context.Context, userID uuid.UUID, opts SyncOptions) (*SyncResult, error)
	SyncAll(ctx context.Context) (*SyncAllResult, error)
}

// Scheduler runs periodic sync passes and queued on-demand requests on one
// goroutine. It implements suture.Service.
type Scheduler struct {
	svc      syncer
	interval time.Duration
	requests chan uuid.UUID
	all      chan struct{}
}

// NewScheduler creates a scheduler and attaches it as svc's sync trigger.
// An interval of zero disables the periodic pass.
func NewScheduler(svc *Service, interval time.Duration) *Scheduler {
	s := newScheduler(svc, interval)
	svc.SetTrigger(s.Trigger)
	return s
}

func newScheduler(svc syncer, interval time.Duration) *Scheduler {
	return &Scheduler{
		svc:      svc,
		interval: interval,
		requests: make(chan uuid.UUID, schedulerQueueSize),
		all:      make(chan struct{}, 1),
	}
}

// Trigger queues a sync for userID. It returns false when the queue is full.
func (s *Scheduler) Trigger(userID uuid.UUID) bool {
	select {
	case s.requests <- userID:
		return true
	default:
		return false
	}
}

// TriggerAll queues a pass over all connected users. Requests made while a
// pass is already queued are coalesced.
func (s *Scheduler) TriggerAll() {
	select {
	case s.all <- struct{}{}:
	default:
	}
}

// Serve processes ticks and queued requests until ctx is canceled.
func (s *Scheduler) Serve(ctx context.Context) error {
	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	logging.Info().Dur("interval", s.interval).Msg("Strava sync scheduler started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			s.runAll(ctx, "scheduled")
		case <-s.all:
			s.runAll(ctx, "manual")
		case userID := <-s.requests:
			s.runOne(ctx, userID)
		}
	}
}

func (s *Scheduler) runAll(ctx context.Context, trigger string) {
	res, err := s.svc.SyncAll(ctx)
	if err != nil {
		logging.Warn().Err(err).Str("trigger", trigger).Msg("Strava sync pass failed")
		return
	}
	logging.Info().
		Str("trigger", trigger).
		Int("users", res.Users).
		Int("succeeded", res.Succeeded).
		Int("failed", res.Failed).
		Int("busy", res.Busy).
		Int("created", res.Created).
		Msg("Strava sync pass completed")
}

func (s *Scheduler) runOne(ctx context.Context, userID uuid.UUID) {
	ctx, cancel := context.WithTimeout(ctx, perUserSyncTimeout)
	defer cancel()

	if _, err := s.svc.Sync(ctx, userID, SyncOptions{}); err != nil && !errors.Is(err, ErrSyncInProgress) {
		logging.Warn().Err(err).Str("user_id", userID.String()).Msg("Queued strava sync failed")
	}
}

func (s *Scheduler) String() string {
	return "strava-sync-scheduler"
}
