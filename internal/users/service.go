// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tomtom215/aeropacer/internal/auth"
	"github.com/tomtom215/aeropacer/internal/database"
	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/models"
	"github.com/tomtom215/aeropacer/internal/validation"
)

// ErrUserNotFound is returned when the account no longer exists.
var ErrUserNotFound = errors.New("user not found")

// Store is the subset of the user repository used here.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ConnectionLookup reports provider connections.
type ConnectionLookup interface {
	Get(ctx context.Context, userID uuid.UUID, provider string) (*models.AuthToken, error)
}

// Disconnector revokes a user's Strava authorisation.
type Disconnector interface {
	Disconnect(ctx context.Context, userID uuid.UUID) error
}

// StatsInvalidator drops a user's cached stats.
type StatsInvalidator interface {
	InvalidateUser(userID uuid.UUID)
}

// UpdateProfileInput carries a partial profile update.
type UpdateProfileInput struct {
	FirstName        *string  `json:"first_name" validate:"omitempty,max=100"`
	LastName         *string  `json:"last_name" validate:"omitempty,max=100"`
	DateOfBirth      *string  `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender           *string  `json:"gender" validate:"omitempty,oneof=male female non_binary prefer_not_to_say"`
	HeightCm         *float64 `json:"height_cm" validate:"omitempty,min=50,max=272"`
	WeightKg         *float64 `json:"weight_kg" validate:"omitempty,min=20,max=400"`
	MaxHeartRate     *int     `json:"max_heart_rate" validate:"omitempty,min=100,max=230"`
	RestingHeartRate *int     `json:"resting_heart_rate" validate:"omitempty,min=25,max=120"`
	ExperienceLevel  *string  `json:"experience_level" validate:"omitempty,oneof=beginner intermediate advanced elite"`
	Bio              *string  `json:"bio" validate:"omitempty,max=1000"`
	AvatarURL        *string  `json:"avatar_url" validate:"omitempty,url,max=500"`
}

// UpdatePreferencesInput carries a partial preferences update.
type UpdatePreferencesInput struct {
	Units         *string                       `json:"units" validate:"omitempty,oneof=metric imperial"`
	WeeklyGoalKm  *float64                      `json:"weekly_goal_km" validate:"omitempty,min=0,max=500"`
	Timezone      *string                       `json:"timezone" validate:"omitempty,timezone"`
	Notifications *NotificationPreferencesInput `json:"notifications"`
	Privacy       *PrivacyPreferencesInput      `json:"privacy"`
}

// NotificationPreferencesInput is a partial notifications update.
type NotificationPreferencesInput struct {
	Email *bool `json:"email"`
	Push  *bool `json:"push"`
}

// PrivacyPreferencesInput is a partial privacy update.
type PrivacyPreferencesInput struct {
	PublicProfile   *bool `json:"public_profile"`
	ShareActivities *bool `json:"share_activities"`
}

// ChangePasswordInput is the body of a password change.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required,max=128"`
	NewPassword     string `json:"new_password" validate:"required,password"`
}

// DeleteAccountInput confirms account deletion with the current password.
type DeleteAccountInput struct {
	Password string `json:"password" validate:"required,max=128"`
}

// Service implements profile management.
type Service struct {
	users    Store
	tokens   ConnectionLookup
	strava   Disconnector
	stats    StatsInvalidator
	security *logging.SecurityLogger
}

// NewService wires the service. strava may be nil when the integration is
// disabled, stats when nothing is cached.
func NewService(users Store, tokens ConnectionLookup, strava Disconnector, stats StatsInvalidator) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		strava:   strava,
		stats:    stats,
		security: logging.NewSecurityLogger(),
	}
}

// GetProfile returns the user's public representation.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserResponse, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.response(ctx, user), nil
}

// UpdateProfile merges the non-nil fields of in into the stored profile.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*models.UserResponse, error) {
	if verr := validation.ValidateStruct(&in); verr != nil {
		return nil, verr
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}

	profile := user.Profile.Data()
	if err := mergeProfile(&profile, in); err != nil {
		return nil, err
	}
	user.Profile = datatypes.NewJSONType(profile)

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.response(ctx, user), nil
}

func mergeProfile(p *models.UserProfile, in UpdateProfileInput) error {
	if in.DateOfBirth != nil {
		dob, err := time.Parse(time.DateOnly, *in.DateOfBirth)
		if err != nil {
			return validation.NewError("date_of_birth", "datetime", "date_of_birth must be YYYY-MM-DD")
		}
		if dob.After(time.Now()) {
			return validation.NewError("date_of_birth", "past", "date_of_birth must be in the past")
		}
		p.DateOfBirth = &dob
	}
	if in.Gender != nil {
		p.Gender = *in.Gender
	}
	if in.HeightCm != nil {
		p.HeightCm = in.HeightCm
	}
	if in.WeightKg != nil {
		p.WeightKg = in.WeightKg
	}
	if in.MaxHeartRate != nil {
		p.MaxHeartRate = in.MaxHeartRate
	}
	if in.RestingHeartRate != nil {
		p.RestingHeartRate = in.RestingHeartRate
	}
	if in.ExperienceLevel != nil {
		p.ExperienceLevel = *in.ExperienceLevel
	}
	if in.Bio != nil {
		p.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.AvatarURL != nil {
		p.AvatarURL = *in.AvatarURL
	}

	if p.RestingHeartRate != nil && p.MaxHeartRate != nil && *p.RestingHeartRate >= *p.MaxHeartRate {
		return validation.NewError("resting_heart_rate", "ltfield",
			"resting_heart_rate must be lower than max_heart_rate")
	}
	return nil
}

// UpdatePreferences merges the non-nil fields of in into the stored preferences.
func (s *Service) UpdatePreferences(ctx context.Context, userID uuid.UUID, in UpdatePreferencesInput) (*models.UserResponse, error) {
	if verr := validation.ValidateStruct(&in); verr != nil {
		return nil, verr
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	prefs := user.Preferences.Data()
	if in.Units != nil {
		prefs.Units = *in.Units
	}
	if in.WeeklyGoalKm != nil {
		prefs.WeeklyGoalKm = *in.WeeklyGoalKm
	}
	if in.Timezone != nil {
		prefs.Timezone = *in.Timezone
	}
	if n := in.Notifications; n != nil {
		if n.Email != nil {
			prefs.Notifications.Email = *n.Email
		}
		if n.Push != nil {
			prefs.Notifications.Push = *n.Push
		}
	}
	if p := in.Privacy; p != nil {
		if p.PublicProfile != nil {
			prefs.Privacy.PublicProfile = *p.PublicProfile
		}
		if p.ShareActivities != nil {
			prefs.Privacy.ShareActivities = *p.ShareActivities
		}
	}
	user.Preferences = datatypes.NewJSONType(prefs)

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	// Period boundaries and the weekly goal come from preferences.
	s.invalidateStats(userID)
	return s.response(ctx, user), nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, in ChangePasswordInput, ip string) error {
	if verr := validation.ValidateStruct(&in); verr != nil {
		return verr
	}
	if in.CurrentPassword == in.NewPassword {
		return validation.NewError("new_password", "nefield", "new_password must differ from current_password")
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.VerifyPassword(user.PasswordHash, in.CurrentPassword); err != nil {
		return err
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.security.LogPasswordChanged(userID.String(), ip)
	return nil
}

// DeleteAccount verifies the password, revokes Strava access when connected
// and removes the user. Strava failures do not block deletion.
func (s *Service) DeleteAccount(ctx context.Context, userID uuid.UUID, in DeleteAccountInput) error {
	if verr := validation.ValidateStruct(&in); verr != nil {
		return verr
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.VerifyPassword(user.PasswordHash, in.Password); err != nil {
		return err
	}

	if s.strava != nil && s.stravaConnected(ctx, userID) {
		if err := s.strava.Disconnect(ctx, userID); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Strava deauthorization failed during account deletion")
		}
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.invalidateStats(userID)

	logging.Ctx(ctx).Info().Str("user_id", userID.String()).Msg("Account deleted")
	return nil
}

func (s *Service) invalidateStats(userID uuid.UUID) {
	if s.stats != nil {
		s.stats.InvalidateUser(userID)
	}
}

func (s *Service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *Service) response(ctx context.Context, user *models.User) *models.UserResponse {
	resp := models.NewUserResponse(user, s.stravaConnected(ctx, user.ID))
	return &resp
}

func (s *Service) stravaConnected(ctx context.Context, userID uuid.UUID) bool {
	if s.tokens == nil {
		return false
	}
	t, err := s.tokens.Get(ctx, userID, models.ProviderStrava)
	return err == nil && t.IsActive
}
