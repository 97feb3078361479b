// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package models

import (
	"time"

	"github.com/google/uuid"
)

// Rollup periods.
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// StatsBucket aggregates the activities whose start date falls in
// [PeriodStart, PeriodEnd).
type StatsBucket struct {
	PeriodStart         time.Time `json:"period_start"`
	PeriodEnd           time.Time `json:"period_end"`
	Count               int       `json:"count"`
	TotalDistanceKm     float64   `json:"total_distance_km"`
	TotalMovingTimeSec  int       `json:"total_moving_time_sec"`
	TotalElevationGainM float64   `json:"total_elevation_gain_m"`
	AveragePaceSecPerKm *float64  `json:"average_pace_sec_per_km"`
	AverageHeartRate    *float64  `json:"average_heart_rate"`
	LongestDistanceKm   float64   `json:"longest_distance_km"`
}

// StatsResponse is the result of a weekly or monthly rollup.
type StatsResponse struct {
	Period   string        `json:"period"`
	From     time.Time     `json:"from"`
	To       time.Time     `json:"to"`
	Timezone string        `json:"timezone"`
	Buckets  []StatsBucket `json:"buckets"`
	Totals   StatsBucket   `json:"totals"`
}

// SummaryTotals are the headline numbers for a window of activities.
type SummaryTotals struct {
	Count               int     `json:"count"`
	TotalDistanceKm     float64 `json:"total_distance_km"`
	TotalMovingTimeSec  int     `json:"total_moving_time_sec"`
	TotalElevationGainM float64 `json:"total_elevation_gain_m"`
}

// ActivityRef points at the activity that holds a personal best.
type ActivityRef struct {
	ActivityID   uuid.UUID `json:"activity_id"`
	Name         string    `json:"name"`
	StartDate    time.Time `json:"start_date"`
	DistanceKm   float64   `json:"distance_km"`
	PaceSecPerKm *float64  `json:"pace_sec_per_km,omitempty"`
}

// PersonalBests lists the user's best running efforts.
type PersonalBests struct {
	LongestRun  *ActivityRef `json:"longest_run,omitempty"`
	FastestPace *ActivityRef `json:"fastest_pace,omitempty"`
}

// ActivitySummary is the dashboard overview for a user.
type ActivitySummary struct {
	AllTime            SummaryTotals `json:"all_time"`
	ThisWeek           SummaryTotals `json:"this_week"`
	ThisMonth          SummaryTotals `json:"this_month"`
	CurrentStreakDays  int           `json:"current_streak_days"`
	WeeklyGoalKm       float64       `json:"weekly_goal_km"`
	WeeklyGoalProgress float64       `json:"weekly_goal_progress"`
	PersonalBests      PersonalBests `json:"personal_bests"`
	LastActivityAt     *time.Time    `json:"last_activity_at,omitempty"`
}
