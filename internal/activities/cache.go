// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package activities

import (
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/aeropacer/internal/cache"
	"github.com/tomtom215/aeropacer/internal/models"
)

// StatsCache holds rollups and summaries keyed by user.
type StatsCache struct {
	c *cache.Cache
}

// NewStatsCache creates a cache whose entries live for ttl.
func NewStatsCache(ttl time.Duration) *StatsCache {
	return &StatsCache{c: cache.New("activity_stats", ttl)}
}

func userPrefix(userID uuid.UUID) string {
	return "stats:" + userID.String() + ":"
}

func statsKey(userID uuid.UUID, period string, from, to time.Time, tz string) string {
	return cache.GenerateKey(userPrefix(userID)+"rollup", struct {
		Period string
		From   int64
		To     int64
		TZ     string
	}{period, from.Unix(), to.Unix(), tz})
}

func summaryKey(userID uuid.UUID) string {
	return userPrefix(userID) + "summary"
}

func (s *StatsCache) getStats(key string) (*models.StatsResponse, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false
	}
	resp, ok := v.(*models.StatsResponse)
	return resp, ok
}

func (s *StatsCache) getSummary(key string) (*models.ActivitySummary, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false
	}
	summary, ok := v.(*models.ActivitySummary)
	return summary, ok
}

func (s *StatsCache) set(key string, v interface{}) {
	if s == nil {
		return
	}
	s.c.Set(key, v)
}

// InvalidateUser drops every cached entry for the user.
func (s *StatsCache) InvalidateUser(userID uuid.UUID) {
	if s == nil {
		return
	}
	s.c.DeletePrefix(userPrefix(userID))
}

// Close stops the background cleanup.
func (s *StatsCache) Close() {
	if s != nil {
		s.c.Close()
	}
}
