// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tomtom215/aeropacer/internal/database"
	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/metrics"
	"github.com/tomtom215/aeropacer/internal/models"
)

var (
	// ErrEmailTaken is returned when registering an address that already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrAccountDisabled is returned when an inactive user logs in.
	ErrAccountDisabled = errors.New("account is disabled")

	// ErrUserNotFound is returned when a token references a deleted user.
	ErrUserNotFound = errors.New("user not found")
)

// UserStore is the subset of the user repository used for authentication.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ConnectionLookup reports stored third-party tokens.
type ConnectionLookup interface {
	Get(ctx context.Context, userID uuid.UUID, provider string) (*models.AuthToken, error)
}

// EventTracker records server-side analytics events.
type EventTracker interface {
	TrackInternal(ctx context.Context, userID uuid.UUID, eventName string, properties map[string]interface{})
}

// ClientInfo describes the caller for security logging.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// RegisterInput is a validated registration request.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,password"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

// LoginInput is a login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=128"`
}

// Session is a signed token and the user it was issued for.
type Session struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expires_at"`
	User      models.UserResponse `json:"user"`
}

// Service implements account registration and login.
type Service struct {
	users    UserStore
	tokens   ConnectionLookup
	jwt      *JWTManager
	events   EventTracker
	security *logging.SecurityLogger
	now      func() time.Time
}

// NewService creates the auth service. events may be nil.
func NewService(users UserStore, tokens ConnectionLookup, jwtManager *JWTManager, events EventTracker) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		jwt:      jwtManager,
		events:   events,
		security: logging.NewSecurityLogger(),
		now:      time.Now,
	}
}

// Register creates an account with default preferences and signs the user in.
func (s *Service) Register(ctx context.Context, in RegisterInput, client ClientInfo) (*Session, error) {
	hash, err := HashPassword(in.Password)
	if err != nil {
		metrics.RecordAuthAttempt("register", false)
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        database.NormalizeEmail(in.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         models.RoleUser,
		Preferences:  datatypes.NewJSONType(models.DefaultPreferences()),
		Profile:      datatypes.NewJSONType(models.UserProfile{}),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		metrics.RecordAuthAttempt("register", false)
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("register user: %w", err)
	}

	metrics.RecordAuthAttempt("register", true)
	s.security.LogRegistered(user.ID.String(), user.Email, client.IP)
	s.track(ctx, user.ID, models.EventUserRegistered, nil)

	return s.issue(user, false)
}

// Login verifies credentials and returns a new session.
func (s *Service) Login(ctx context.Context, in LoginInput, client ClientInfo) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}

	hash := ""
	if user != nil {
		hash = user.PasswordHash
	}
	if err := VerifyPassword(hash, in.Password); err != nil {
		metrics.RecordAuthAttempt("login", false)
		s.security.LogLoginFailure(in.Email, client.IP, client.UserAgent, "invalid credentials")
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		metrics.RecordAuthAttempt("login", false)
		s.security.LogLoginFailure(in.Email, client.IP, client.UserAgent, "account disabled")
		return nil, ErrAccountDisabled
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to update last login")
	} else {
		user.LastLoginAt = &now
	}

	metrics.RecordAuthAttempt("login", true)
	s.security.LogLoginSuccess(user.ID.String(), user.Email, client.IP, client.UserAgent)
	s.track(ctx, user.ID, models.EventUserLoggedIn, map[string]interface{}{"method": "password"})

	return s.issue(user, s.stravaConnected(ctx, user.ID))
}

// Me returns the current user.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*models.UserResponse, error) {
	user, err := s.loadActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := models.NewUserResponse(user, s.stravaConnected(ctx, user.ID))
	return &resp, nil
}

// Refresh issues a fresh token for a still-valid one. Role and email are
// re-read so that changes take effect on refresh.
func (s *Service) Refresh(ctx context.Context, claims *Claims) (*Session, error) {
	userID, err := claims.UserUUID()
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.loadActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issue(user, s.stravaConnected(ctx, user.ID))
}

func (s *Service) loadActive(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

func (s *Service) issue(user *models.User, stravaConnected bool) (*Session, error) {
	token, expiresAt, err := s.jwt.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      models.NewUserResponse(user, stravaConnected),
	}, nil
}

func (s *Service) stravaConnected(ctx context.Context, userID uuid.UUID) bool {
	if s.tokens == nil {
		return false
	}
	t, err := s.tokens.Get(ctx, userID, models.ProviderStrava)
	return err == nil && t.IsActive
}

func (s *Service) track(ctx context.Context, userID uuid.UUID, name string, props map[string]interface{}) {
	if s.events != nil {
		s.events.TrackInternal(ctx, userID, name, props)
	}
}
