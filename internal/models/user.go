// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Roles recognised by the authorization policy.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Unit systems for UserPreferences.Units.
const (
	UnitsMetric   = "metric"
	UnitsImperial = "imperial"
)

// Experience levels for UserProfile.ExperienceLevel.
const (
	ExperienceBeginner     = "beginner"
	ExperienceIntermediate = "intermediate"
	ExperienceAdvanced     = "advanced"
	ExperienceElite        = "elite"
)

// User is an AeroPacer account.
type User struct {
	ID              uuid.UUID                           `gorm:"type:uuid;primaryKey" json:"id"`
	Email           string                              `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash    string                              `gorm:"size:255;not null" json:"-"`
	FirstName       string                              `gorm:"size:100" json:"first_name"`
	LastName        string                              `gorm:"size:100" json:"last_name"`
	Role            string                              `gorm:"size:20;not null;default:user" json:"role"`
	Preferences     datatypes.JSONType[UserPreferences] `gorm:"type:jsonb;not null" json:"preferences"`
	Profile         datatypes.JSONType[UserProfile]     `gorm:"type:jsonb;not null" json:"profile"`
	StravaAthleteID *int64                              `json:"strava_athlete_id,omitempty"`
	LastLoginAt     *time.Time                          `json:"last_login_at,omitempty"`
	IsActive        bool                                `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time                           `json:"created_at"`
	UpdatedAt       time.Time                           `json:"updated_at"`
}

// TableName pins the table name independent of gorm naming strategy.
func (User) TableName() string { return "users" }

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// FullName joins first and last name, skipping empty parts.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// Location returns the user's configured time zone, falling back to UTC.
func (u *User) Location() *time.Location {
	tz := u.Preferences.Data().Timezone
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// UserPreferences are user-controlled display and privacy settings.
type UserPreferences struct {
	Units         string                  `json:"units"`
	WeeklyGoalKm  float64                 `json:"weekly_goal_km"`
	Notifications NotificationPreferences `json:"notifications"`
	Privacy       PrivacyPreferences      `json:"privacy"`
	Timezone      string                  `json:"timezone"`
}

// NotificationPreferences toggles outbound notification channels.
type NotificationPreferences struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
}

// PrivacyPreferences controls what other users may see.
type PrivacyPreferences struct {
	PublicProfile   bool `json:"public_profile"`
	ShareActivities bool `json:"share_activities"`
}

// DefaultPreferences returns the preferences assigned at registration.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Units:         UnitsMetric,
		WeeklyGoalKm:  20,
		Notifications: NotificationPreferences{Email: true, Push: false},
		Privacy:       PrivacyPreferences{PublicProfile: false, ShareActivities: false},
		Timezone:      "UTC",
	}
}

// UserProfile holds physiological data used for coaching.
type UserProfile struct {
	DateOfBirth      *time.Time `json:"date_of_birth,omitempty"`
	Gender           string     `json:"gender,omitempty"`
	HeightCm         *float64   `json:"height_cm,omitempty"`
	WeightKg         *float64   `json:"weight_kg,omitempty"`
	MaxHeartRate     *int       `json:"max_heart_rate,omitempty"`
	RestingHeartRate *int       `json:"resting_heart_rate,omitempty"`
	ExperienceLevel  string     `json:"experience_level,omitempty"`
	Bio              string     `json:"bio,omitempty"`
	AvatarURL        string     `json:"avatar_url,omitempty"`
}

// Age returns the age in whole years at now, or 0 when the birth date is unknown.
func (p UserProfile) Age(now time.Time) int {
	if p.DateOfBirth == nil {
		return 0
	}
	dob := *p.DateOfBirth
	age := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// UserResponse is the public representation of a user. It never carries the
// password hash.
type UserResponse struct {
	ID              uuid.UUID       `json:"id"`
	Email           string          `json:"email"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	Role            string          `json:"role"`
	Preferences     UserPreferences `json:"preferences"`
	Profile         UserProfile     `json:"profile"`
	StravaConnected bool            `json:"strava_connected"`
	StravaAthleteID *int64          `json:"strava_athlete_id,omitempty"`
	LastLoginAt     *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewUserResponse builds the public view of u.
func NewUserResponse(u *User, stravaConnected bool) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            u.Role,
		Preferences:     u.Preferences.Data(),
		Profile:         u.Profile.Data(),
		StravaConnected: stravaConnected,
		StravaAthleteID: u.StravaAthleteID,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
	}
}
