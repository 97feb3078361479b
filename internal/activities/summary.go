// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package activities

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/aeropacer/internal/models"
)

// streakWindow bounds how far back the streak and last activity are looked up.
const streakWindow = 400 * 24 * time.Hour

// Summary returns all-time and current period totals, the running streak and
// personal bests.
func (s *Service) Summary(ctx context.Context, userID uuid.UUID) (*models.ActivitySummary, error) {
	key := summaryKey(userID)
	if cached, ok := s.cache.getSummary(key); ok {
		return cached, nil
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	loc := user.Location()
	now := s.now()
	weekStart := PeriodStart(now, models.PeriodWeek, loc)
	monthStart := PeriodStart(now, models.PeriodMonth, loc)

	summary := &models.ActivitySummary{
		WeeklyGoalKm: user.Preferences.Data().WeeklyGoalKm,
	}

	if summary.AllTime, err = s.store.Totals(ctx, userID, nil, nil); err != nil {
		return nil, fmt.Errorf("all-time totals: %w", err)
	}
	if summary.ThisWeek, err = s.store.Totals(ctx, userID, &weekStart, nil); err != nil {
		return nil, fmt.Errorf("weekly totals: %w", err)
	}
	if summary.ThisMonth, err = s.store.Totals(ctx, userID, &monthStart, nil); err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	roundTotals(&summary.AllTime)
	roundTotals(&summary.ThisWeek)
	roundTotals(&summary.ThisMonth)

	if summary.PersonalBests, err = s.store.PersonalBests(ctx, userID); err != nil {
		return nil, fmt.Errorf("personal bests: %w", err)
	}

	dates, err := s.store.StartDatesSince(ctx, userID, now.Add(-streakWindow))
	if err != nil {
		return nil, fmt.Errorf("recent activity dates: %w", err)
	}
	summary.CurrentStreakDays = CurrentStreak(dates, now, loc)
	if len(dates) > 0 {
		latest := dates[0]
		for _, d := range dates[1:] {
			if d.After(latest) {
				latest = d
			}
		}
		summary.LastActivityAt = &latest
	}

	summary.WeeklyGoalProgress = GoalProgress(summary.ThisWeek.TotalDistanceKm, summary.WeeklyGoalKm)

	s.cache.set(key, summary)
	return summary, nil
}

func roundTotals(t *models.SummaryTotals) {
	t.TotalDistanceKm = models.Round(t.TotalDistanceKm, 3)
	t.TotalElevationGainM = models.Round(t.TotalElevationGainM, 1)
}

// CurrentStreak counts consecutive calendar days in loc with at least one
// activity, ending today. A streak that ended yesterday is still current
// until today is over.
func CurrentStreak(dates []time.Time, now time.Time, loc *time.Location) int {
	if len(dates) == 0 {
		return 0
	}

	days := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		days[d.In(loc).Format(time.DateOnly)] = struct{}{}
	}

	y, m, d := now.In(loc).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if _, ok := days[day.Format(time.DateOnly)]; !ok {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for {
		if _, ok := days[day.Format(time.DateOnly)]; !ok {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

// GoalProgress returns distance as a percentage of goal, rounded to 0.1.
// A zero goal reports no progress.
func GoalProgress(distanceKm, goalKm float64) float64 {
	if goalKm <= 0 {
		return 0
	}
	return models.Round(distanceKm/goalKm*100, 1)
}
