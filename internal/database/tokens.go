// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tomtom215/aeropacer/internal/models"
)

const tableAuthTokens = "auth_tokens"

// TokenRepository persists third-party OAuth credentials.
type TokenRepository struct {
	db *DB
}

// NewTokenRepository creates a TokenRepository.
func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Upsert inserts t or replaces the credentials of the existing row for the same
// user and provider. On return t.ID is the ID of the stored row.
func (r *TokenRepository) Upsert(ctx context.Context, t *models.AuthToken) (err error) {
	defer func(start time.Time) { observe("upsert", tableAuthTokens, start, err) }(time.Now())

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.ExpiresAt = t.ExpiresAt.UTC()

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	err = gdb.Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "provider"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"provider_user_id", "access_token", "refresh_token", "expires_at",
				"scope", "is_active", "provider_data", "updated_at",
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "id"}, {Name: "created_at"}}},
	).Create(t).Error
	if err = mapError(err); err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// Get returns the user's token for provider, active or not.
func (r *TokenRepository) Get(ctx context.Context, userID uuid.UUID, provider string) (_ *models.AuthToken, err error) {
	defer func(start time.Time) { observe("get", tableAuthTokens, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	var t models.AuthToken
	if err = mapError(gdb.First(&t, "user_id = ? AND provider = ?", userID, provider).Error); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByProviderUserID finds the active token for a provider account, e.g. a Strava athlete.
func (r *TokenRepository) GetByProviderUserID(ctx context.Context, provider, providerUserID string) (_ *models.AuthToken, err error) {
	defer func(start time.Time) { observe("get_by_provider_user", tableAuthTokens, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	var t models.AuthToken
	err = gdb.Where("provider = ? AND provider_user_id = ? AND is_active", provider, providerUserID).
		Order("updated_at DESC").
		First(&t).Error
	if err = mapError(err); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTokens stores refreshed credentials.
func (r *TokenRepository) UpdateTokens(ctx context.Context, id uuid.UUID, access, refresh string, expiresAt time.Time) (err error) {
	defer func(start time.Time) { observe("update_tokens", tableAuthTokens, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	res := gdb.Model(&models.AuthToken{}).Where("id = ?", id).Updates(map[string]interface{}{
		"access_token":  access,
		"refresh_token": refresh,
		"expires_at":    expiresAt.UTC(),
	})
	if err = mapError(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		err = ErrNotFound
	}
	return err
}

// Deactivate marks the user's token for provider inactive.
func (r *TokenRepository) Deactivate(ctx context.Context, userID uuid.UUID, provider string) (err error) {
	defer func(start time.Time) { observe("deactivate", tableAuthTokens, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	res := gdb.Model(&models.AuthToken{}).
		Where("user_id = ? AND provider = ?", userID, provider).
		Update("is_active", false)
	if err = mapError(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		err = ErrNotFound
	}
	return err
}

// ListActive returns active tokens for provider whose user account is active.
func (r *TokenRepository) ListActive(ctx context.Context, provider string) (_ []models.AuthToken, err error) {
	defer func(start time.Time) { observe("list_active", tableAuthTokens, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	var tokens []models.AuthToken
	err = gdb.
		Select("auth_tokens.*").
		Joins("JOIN users ON users.id = auth_tokens.user_id").
		Where("auth_tokens.provider = ? AND auth_tokens.is_active AND users.is_active", provider).
		Order("auth_tokens.created_at").
		Find(&tokens).Error
	return tokens, mapError(err)
}

// RecordSync stamps the completion time of the latest provider sync into provider_data.
func (r *TokenRepository) RecordSync(ctx context.Context, id uuid.UUID, at time.Time) (err error) {
	defer func(start time.Time) { observe("record_sync", tableAuthTokens, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	res := gdb.Model(&models.AuthToken{}).Where("id = ?", id).Update("provider_data",
		gorm.Expr("jsonb_set(COALESCE(provider_data, '{}'::jsonb), '{last_sync_at}', to_jsonb(?::text))",
			at.UTC().Format(time.RFC3339)))
	if err = mapError(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		err = ErrNotFound
	}
	return err
}
