// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package activities

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCurrentStreak(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2026, 3, d, h, 0, 0, 0, time.UTC) }

	tests := []struct {
		name  string
		dates []time.Time
		want  int
	}{
		{"no activities", nil, 0},
		{"today only", []time.Time{day(18, 7)}, 1},
		{"ended yesterday", []time.Time{day(17, 7), day(16, 7)}, 2},
		{"three days with doubles", []time.Time{day(18, 6), day(18, 18), day(17, 7), day(16, 7)}, 3},
		{"gap breaks streak", []time.Time{day(18, 7), day(16, 7), day(15, 7)}, 1},
		{"stale", []time.Time{day(15, 7), day(14, 7)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrentStreak(tt.dates, fixedNow, time.UTC); got != tt.want {
				t.Errorf("CurrentStreak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCurrentStreak_UsesLocalDays(t *testing.T) {
	tokyo := mustLoad(t, "Asia/Tokyo")
	// 16:00 UTC on the 17th is already the 18th in Tokyo.
	dates := []time.Time{
		time.Date(2026, 3, 17, 16, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 17, 2, 0, 0, 0, time.UTC),
	}
	if got := CurrentStreak(dates, fixedNow, tokyo); got != 2 {
		t.Errorf("CurrentStreak() = %d, want 2", got)
	}
	if got := CurrentStreak(dates, fixedNow, time.UTC); got != 1 {
		t.Errorf("CurrentStreak(UTC) = %d, want 1", got)
	}
}

func TestGoalProgress(t *testing.T) {
	tests := []struct {
		distance, goal, want float64
	}{
		{10, 40, 25},
		{0, 40, 0},
		{50, 40, 125},
		{12.36, 30, 41.2},
		{10, 0, 0},
	}
	for _, tt := range tests {
		if got := GoalProgress(tt.distance, tt.goal); got != tt.want {
			t.Errorf("GoalProgress(%v, %v) = %v, want %v", tt.distance, tt.goal, got, tt.want)
		}
	}
}

func TestService_Summary(t *testing.T) {
	f := newFixture(t, "UTC")
	ctx := context.Background()

	// This week: Monday 16th and Tuesday 17th. Earlier this month: the 2nd.
	f.store.add(run(f.userID, time.Date(2026, 3, 16, 7, 0, 0, 0, time.UTC), 5, 1500))
	f.store.add(run(f.userID, time.Date(2026, 3, 17, 7, 0, 0, 0, time.UTC), 5, 1350))
	long := f.store.add(run(f.userID, time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC), 21.1, 7200))
	f.store.add(run(f.userID, time.Date(2026, 2, 10, 7, 0, 0, 0, time.UTC), 0.5, 100))
	f.store.add(run(uuid.New(), fixedNow, 50, 15000))

	s, err := f.svc.Summary(ctx, f.userID)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}

	if s.AllTime.Count != 4 || s.AllTime.TotalDistanceKm != 31.6 {
		t.Errorf("AllTime = %+v", s.AllTime)
	}
	if s.ThisWeek.Count != 2 || s.ThisWeek.TotalDistanceKm != 10 {
		t.Errorf("ThisWeek = %+v", s.ThisWeek)
	}
	if s.ThisMonth.Count != 3 {
		t.Errorf("ThisMonth.Count = %d, want 3", s.ThisMonth.Count)
	}
	if s.CurrentStreakDays != 2 {
		t.Errorf("CurrentStreakDays = %d, want 2", s.CurrentStreakDays)
	}
	if s.WeeklyGoalKm != 40 || s.WeeklyGoalProgress != 25 {
		t.Errorf("goal = %v, progress = %v", s.WeeklyGoalKm, s.WeeklyGoalProgress)
	}
	if s.PersonalBests.LongestRun == nil || s.PersonalBests.LongestRun.ActivityID != long.ID {
		t.Errorf("LongestRun = %+v, want the half marathon", s.PersonalBests.LongestRun)
	}
	if s.PersonalBests.FastestPace == nil || *s.PersonalBests.FastestPace.PaceSecPerKm != 270 {
		t.Errorf("FastestPace = %+v, want 270 s/km (sub-1km runs excluded)", s.PersonalBests.FastestPace)
	}
	if s.LastActivityAt == nil || !s.LastActivityAt.Equal(time.Date(2026, 3, 17, 7, 0, 0, 0, time.UTC)) {
		t.Errorf("LastActivityAt = %v", s.LastActivityAt)
	}

	calls := f.store.totalCalls
	if _, err := f.svc.Summary(ctx, f.userID); err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if f.store.totalCalls != calls {
		t.Error("second Summary() should be served from cache")
	}
}

func TestService_SummaryEmpty(t *testing.T) {
	f := newFixture(t, "UTC")

	s, err := f.svc.Summary(context.Background(), f.userID)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if s.AllTime.Count != 0 || s.CurrentStreakDays != 0 || s.LastActivityAt != nil {
		t.Errorf("summary = %+v, want empty", s)
	}
	if s.PersonalBests.LongestRun != nil || s.PersonalBests.FastestPace != nil {
		t.Errorf("PersonalBests = %+v, want none", s.PersonalBests)
	}
	if s.WeeklyGoalProgress != 0 {
		t.Errorf("WeeklyGoalProgress = %v, want 0", s.WeeklyGoalProgress)
	}
}

func TestStatsCache_NilSafe(t *testing.T) {
	var c *StatsCache
	c.InvalidateUser(uuid.New())
	c.set("k", 1)
	if _, ok := c.getStats("k"); ok {
		t.Error("nil cache should never hit")
	}
	c.Close()
}
