// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Activity sources.
const (
	SourceManual = "manual"
	SourceStrava = "strava"
)

// Activity types. Names follow Strava's sport_type vocabulary.
const (
	TypeRun        = "Run"
	TypeTrailRun   = "TrailRun"
	TypeVirtualRun = "VirtualRun"
	TypeWalk       = "Walk"
	TypeHike       = "Hike"
	TypeRide       = "Ride"
	TypeWorkout    = "Workout"
)

// Activity is one recorded workout.
type Activity struct {
	ID                  uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID              uuid.UUID                    `gorm:"type:uuid;not null;index:idx_activities_user_start,priority:1" json:"user_id"`
	Source              string                       `gorm:"size:20;not null;default:manual" json:"source"`
	ExternalID          *string                      `gorm:"size:64" json:"external_id,omitempty"`
	Name                string                       `gorm:"size:255;not null" json:"name"`
	Type                string                       `gorm:"size:50;not null" json:"type"`
	StartDate           time.Time                    `gorm:"not null;index:idx_activities_user_start,priority:2" json:"start_date"`
	DistanceKm          float64                      `gorm:"not null" json:"distance_km"`
	MovingTimeSec       int                          `gorm:"not null" json:"moving_time_sec"`
	ElapsedTimeSec      int                          `gorm:"not null" json:"elapsed_time_sec"`
	AveragePaceSecPerKm *float64                     `json:"average_pace_sec_per_km,omitempty"`
	AverageSpeedKmh     *float64                     `json:"average_speed_kmh,omitempty"`
	MaxSpeedKmh         *float64                     `json:"max_speed_kmh,omitempty"`
	ElevationGainM      *float64                     `json:"elevation_gain_m,omitempty"`
	AverageHeartRate    *float64                     `json:"average_heart_rate,omitempty"`
	MaxHeartRate        *float64                     `json:"max_heart_rate,omitempty"`
	AverageCadence      *float64                     `json:"average_cadence,omitempty"`
	Calories            *float64                     `json:"calories,omitempty"`
	StartLat            *float64                     `json:"start_lat,omitempty"`
	StartLng            *float64                     `json:"start_lng,omitempty"`
	EndLat              *float64                     `json:"end_lat,omitempty"`
	EndLng              *float64                     `json:"end_lng,omitempty"`
	SummaryPolyline     *string                      `json:"summary_polyline,omitempty"`
	Splits              datatypes.JSONType[[]Split]  `gorm:"type:jsonb;not null;default:'[]'" json:"splits"`
	Weather             datatypes.JSONType[*Weather] `gorm:"type:jsonb;not null;default:'null'" json:"weather"`
	RawData             datatypes.JSONMap            `gorm:"type:jsonb" json:"-"`
	CreatedAt           time.Time                    `json:"created_at"`
	UpdatedAt           time.Time                    `json:"updated_at"`
}

// TableName pins the table name independent of gorm naming strategy.
func (Activity) TableName() string { return "activities" }

// Split is one per-kilometre split.
type Split struct {
	Km               int      `json:"km"`
	DistanceKm       float64  `json:"distance_km"`
	MovingTimeSec    int      `json:"moving_time_sec"`
	PaceSecPerKm     *float64 `json:"pace_sec_per_km,omitempty"`
	ElevationDiffM   *float64 `json:"elevation_diff_m,omitempty"`
	AverageHeartRate *float64 `json:"average_heart_rate,omitempty"`
}

// Weather captures conditions at the start of an activity.
type Weather struct {
	TemperatureC *float64 `json:"temperature_c,omitempty"`
	HumidityPct  *float64 `json:"humidity_pct,omitempty"`
	WindKmh      *float64 `json:"wind_kmh,omitempty"`
	Conditions   string   `json:"conditions,omitempty"`
}

// IsRun reports whether the activity counts as running for personal bests.
func (a *Activity) IsRun() bool {
	switch a.Type {
	case TypeRun, TypeTrailRun, TypeVirtualRun:
		return true
	}
	return false
}

// DerivePace recomputes the derived pace and speed fields from distance and
// moving time. Pace is nil when the distance is zero.
func (a *Activity) DerivePace() {
	a.AveragePaceSecPerKm = PaceSecPerKm(a.MovingTimeSec, a.DistanceKm)
	if a.AverageSpeedKmh == nil && a.MovingTimeSec > 0 && a.DistanceKm > 0 {
		speed := Round(a.DistanceKm/(float64(a.MovingTimeSec)/3600), 2)
		a.AverageSpeedKmh = &speed
	}
}

// PaceSecPerKm returns moving time divided by distance, rounded to 0.1s.
func PaceSecPerKm(movingTimeSec int, distanceKm float64) *float64 {
	if distanceKm <= 0 || movingTimeSec <= 0 {
		return nil
	}
	pace := Round(float64(movingTimeSec)/distanceKm, 1)
	return &pace
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// ActivityFilter narrows activity listings.
type ActivityFilter struct {
	UserID uuid.UUID
	From   *time.Time
	To     *time.Time
	Type   string
	Source string
	Limit  int
	Offset int
}
