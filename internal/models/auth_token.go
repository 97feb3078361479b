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

// ProviderStrava identifies Strava OAuth credentials.
const ProviderStrava = "strava"

// DefaultRefreshSkew is how long before expiry a token is considered stale.
const DefaultRefreshSkew = 5 * time.Minute

// AuthToken stores third-party OAuth credentials for a user. One row per
// (user, provider).
type AuthToken struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_auth_tokens_user_provider,priority:1" json:"user_id"`
	Provider       string            `gorm:"size:20;not null;uniqueIndex:idx_auth_tokens_user_provider,priority:2" json:"provider"`
	ProviderUserID string            `gorm:"size:64;not null;index" json:"provider_user_id"`
	AccessToken    string            `gorm:"type:text;not null" json:"-"`
	RefreshToken   string            `gorm:"type:text;not null" json:"-"`
	ExpiresAt      time.Time         `gorm:"not null" json:"expires_at"`
	Scope          string            `gorm:"size:255" json:"scope"`
	IsActive       bool              `gorm:"not null;default:true" json:"is_active"`
	ProviderData   datatypes.JSONMap `gorm:"type:jsonb" json:"provider_data,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// TableName pins the table name independent of gorm naming strategy.
func (AuthToken) TableName() string { return "auth_tokens" }

// IsValid reports whether the token is active and unexpired at now.
func (t *AuthToken) IsValid(now time.Time) bool {
	return t.IsActive && now.Before(t.ExpiresAt)
}

// NeedsRefresh reports whether the token expires within skew of now.
func (t *AuthToken) NeedsRefresh(now time.Time, skew time.Duration) bool {
	return !now.Add(skew).Before(t.ExpiresAt)
}
