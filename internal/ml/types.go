// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package ml

import (
	"errors"
	"time"
)

// Response sources.
const (
	SourceService  = "ml-service"
	SourceFallback = "fallback"
)

// Risk levels for TrainingLoad.
const (
	RiskLow              = "low"
	RiskModerate         = "moderate"
	RiskHigh             = "high"
	RiskInsufficientData = "insufficient_data"
)

// ErrUnsupportedDistance is returned for race distances outside RaceDistances.
var ErrUnsupportedDistance = errors.New("unsupported race distance")

// RaceDistances maps supported race keys to metres.
var RaceDistances = map[string]float64{
	"5k":       5000,
	"10k":      10000,
	"half":     21097.5,
	"marathon": 42195,
}

// raceOrder is the order predictions are returned in when no distance is given.
var raceOrder = []string{"5k", "10k", "half", "marathon"}

// Recommendation is one coaching insight.
type Recommendation struct {
	Type       string                 `json:"type"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Priority   string                 `json:"priority"`
	Confidence float64                `json:"confidence"`
	Category   string                 `json:"category"`
	DataPoints map[string]interface{} `json:"data_points,omitempty"`
}

// Recommendations is the response for the recommendations endpoint.
type Recommendations struct {
	Recommendations []Recommendation `json:"recommendations"`
	Source          string           `json:"source"`
}

// ConfidenceInterval bounds a predicted time in seconds.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// PaceSplit is the target for one kilometre of a race.
type PaceSplit struct {
	Km                 int     `json:"km"`
	TargetPaceSecPerKm float64 `json:"target_pace_sec_per_km"`
	CumulativeTimeSec  float64 `json:"cumulative_time_sec"`
}

// Prediction is a race time prediction.
type Prediction struct {
	Race               string             `json:"race"`
	RaceDistance       float64            `json:"race_distance"`
	PredictedTimeSec   float64            `json:"predicted_time_sec"`
	PredictedTime      string             `json:"predicted_time"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
	PacingStrategy     []PaceSplit        `json:"pacing_strategy"`
	Confidence         float64            `json:"confidence"`
	Source             string             `json:"source"`
}

// Fatigue is a fatigue and readiness estimate.
type Fatigue struct {
	FatigueScore           float64  `json:"fatigue_score"`
	RecoveryRecommendation string   `json:"recovery_recommendation"`
	DaysToFullRecovery     int      `json:"days_to_full_recovery"`
	TrainingReadiness      string   `json:"training_readiness"`
	ContributingFactors    []string `json:"contributing_factors"`
	Source                 string   `json:"source"`
}

// TrainingLoad is the acute:chronic workload ratio.
type TrainingLoad struct {
	AcuteLoad      float64 `json:"acute_load"`
	ChronicLoad    float64 `json:"chronic_load"`
	Ratio          float64 `json:"ratio"`
	RiskLevel      string  `json:"risk_level"`
	Recommendation string  `json:"recommendation"`
	Source         string  `json:"source"`
}

// Health reports ML service availability.
type Health struct {
	Enabled      bool                   `json:"enabled"`
	Available    bool                   `json:"available"`
	Status       string                 `json:"status"`
	BreakerState string                 `json:"breaker_state"`
	LatencyMS    int64                  `json:"latency_ms"`
	Details      map[string]interface{} `json:"details,omitempty"`
	CheckedAt    time.Time              `json:"checked_at"`
}

// profilePayload is the user_profile object sent to the service.
type profilePayload struct {
	ID               string   `json:"id"`
	Age              int      `json:"age,omitempty"`
	Gender           string   `json:"gender,omitempty"`
	WeightKg         *float64 `json:"weight_kg,omitempty"`
	HeightCm         *float64 `json:"height_cm,omitempty"`
	ExperienceLevel  string   `json:"experience_level,omitempty"`
	MaxHeartRate     *int     `json:"max_heart_rate,omitempty"`
	RestingHeartRate *int     `json:"resting_heart_rate,omitempty"`
	WeeklyGoalKm     float64  `json:"weekly_goal_km,omitempty"`
}

// activityPayload is one activity sent to the service.
type activityPayload struct {
	ID             string   `json:"id"`
	Date           string   `json:"date"`
	DistanceKm     float64  `json:"distance_km"`
	DurationSec    int      `json:"duration_sec"`
	PaceSecPerKm   *float64 `json:"pace_sec_per_km,omitempty"`
	AvgHeartRate   *float64 `json:"avg_heart_rate,omitempty"`
	MaxHeartRate   *float64 `json:"max_heart_rate,omitempty"`
	ElevationGainM *float64 `json:"elevation_gain_m,omitempty"`
	ActivityType   string   `json:"activity_type"`
}

// coachRequest is the body of every POST to the service.
type coachRequest struct {
	UserProfile  profilePayload    `json:"user_profile"`
	Activities   []activityPayload `json:"activities"`
	RaceDistance float64           `json:"race_distance,omitempty"`
}

// predictionWire is the service's prediction shape.
type predictionWire struct {
	RaceDistance       float64              `json:"race_distance"`
	PredictedTime      float64              `json:"predicted_time"`
	ConfidenceInterval map[string]float64   `json:"confidence_interval"`
	PacingStrategy     []map[string]float64 `json:"pacing_strategy"`
	Confidence         float64              `json:"confidence"`
}

// recommendationsWire accepts either a bare list or {"recommendations": [...]}.
type recommendationsWire struct {
	Recommendations []Recommendation `json:"recommendations"`
}
