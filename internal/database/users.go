// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/aeropacer/internal/models"
)

const tableUsers = "users"

// UserRepository persists user accounts.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// NormalizeEmail lower-cases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a new user. ID and timestamps are assigned when empty.
func (r *UserRepository) Create(ctx context.Context, u *models.User) (err error) {
	defer func(start time.Time) { observe("create", tableUsers, start, err) }(time.Now())

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = models.RoleUser
	}

	gdb, cancel := r.db.session(ctx)
	defer cancel()
	if err = mapError(gdb.Create(u).Error); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByID returns the user with the given ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (_ *models.User, err error) {
	defer func(start time.Time) { observe("get", tableUsers, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	var u models.User
	if err = mapError(gdb.First(&u, "id = ?", id).Error); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks a user up by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (_ *models.User, err error) {
	defer func(start time.Time) { observe("get_by_email", tableUsers, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	var u models.User
	if err = mapError(gdb.First(&u, "email = ?", NormalizeEmail(email)).Error); err != nil {
		return nil, err
	}
	return &u, nil
}

// Update writes the mutable profile columns of u.
func (r *UserRepository) Update(ctx context.Context, u *models.User) (err error) {
	defer func(start time.Time) { observe("update", tableUsers, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	res := gdb.Model(u).
		Select("first_name", "last_name", "role", "preferences", "profile", "is_active", "updated_at").
		Updates(u)
	if err = mapError(res.Error); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.RowsAffected == 0 {
		err = ErrNotFound
	}
	return err
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) (err error) {
	defer func(start time.Time) { observe("update_password", tableUsers, start, err) }(time.Now())
	return r.updateColumns(ctx, id, map[string]interface{}{"password_hash": hash})
}

// UpdateLastLogin stamps last_login_at.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) (err error) {
	defer func(start time.Time) { observe("update_last_login", tableUsers, start, err) }(time.Now())
	return r.updateColumns(ctx, id, map[string]interface{}{"last_login_at": at.UTC()})
}

// SetStravaAthleteID links (or, with nil, unlinks) a Strava athlete.
func (r *UserRepository) SetStravaAthleteID(ctx context.Context, id uuid.UUID, athleteID *int64) (err error) {
	defer func(start time.Time) { observe("set_strava_athlete", tableUsers, start, err) }(time.Now())
	return r.updateColumns(ctx, id, map[string]interface{}{"strava_athlete_id": athleteID})
}

func (r *UserRepository) updateColumns(ctx context.Context, id uuid.UUID, cols map[string]interface{}) error {
	gdb, cancel := r.db.session(ctx)
	defer cancel()

	res := gdb.Model(&models.User{}).Where("id = ?", id).Updates(cols)
	if err := mapError(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user. Activities and tokens cascade; analytics events are kept
// with user_id set to NULL.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer func(start time.Time) { observe("delete", tableUsers, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	res := gdb.Delete(&models.User{}, "id = ?", id)
	if err = mapError(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		err = ErrNotFound
	}
	return err
}
