// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package api

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/aeropacer/internal/activities"
	"github.com/tomtom215/aeropacer/internal/analytics"
	"github.com/tomtom215/aeropacer/internal/auth"
	"github.com/tomtom215/aeropacer/internal/config"
	"github.com/tomtom215/aeropacer/internal/ml"
	"github.com/tomtom215/aeropacer/internal/models"
	"github.com/tomtom215/aeropacer/internal/strava"
	"github.com/tomtom215/aeropacer/internal/users"
	"github.com/tomtom215/aeropacer/internal/websocket"
)

// AuthService registers, logs in and re-issues tokens.
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput, client auth.ClientInfo) (*auth.Session, error)
	Login(ctx context.Context, in auth.LoginInput, client auth.ClientInfo) (*auth.Session, error)
	Me(ctx context.Context, userID uuid.UUID) (*models.UserResponse, error)
	Refresh(ctx context.Context, claims *auth.Claims) (*auth.Session, error)
}

// UserService manages the caller's own account.
type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in users.UpdateProfileInput) (*models.UserResponse, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, in users.UpdatePreferencesInput) (*models.UserResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, in users.ChangePasswordInput, ip string) error
	DeleteAccount(ctx context.Context, userID uuid.UUID, in users.DeleteAccountInput) error
}

// StravaService is the Strava connection and sync workflow.
type StravaService interface {
	AuthorizeURL(ctx context.Context, userID uuid.UUID) (string, error)
	HandleCallback(ctx context.Context, in strava.CallbackInput) (*strava.ConnectResult, error)
	Status(ctx context.Context, userID uuid.UUID) (*strava.Status, error)
	Sync(ctx context.Context, userID uuid.UUID, opts strava.SyncOptions) (*strava.SyncResult, error)
	Disconnect(ctx context.Context, userID uuid.UUID) error
	HandleWebhookEvent(ctx context.Context, ev strava.WebhookEvent) error
	VerifyWebhook(mode, token, challenge string) (string, error)
}

// SyncTrigger starts a background sync pass over every connected user.
type SyncTrigger interface {
	TriggerAll()
}

// ActivityService is activity CRUD plus rollups.
type ActivityService interface {
	List(ctx context.Context, userID uuid.UUID, in activities.ListInput) (*activities.ListResult, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Activity, error)
	Create(ctx context.Context, userID uuid.UUID, in activities.CreateInput) (*models.Activity, error)
	Update(ctx context.Context, userID, id uuid.UUID, in activities.UpdateInput) (*models.Activity, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Stats(ctx context.Context, userID uuid.UUID, in activities.StatsInput) (*models.StatsResponse, error)
	Summary(ctx context.Context, userID uuid.UUID) (*models.ActivitySummary, error)
}

// AnalyticsService records and reports product events.
type AnalyticsService interface {
	Track(ctx context.Context, in analytics.TrackInput, client analytics.Client) (*models.AnalyticsEvent, error)
	TrackBatch(ctx context.Context, in analytics.BatchInput, client analytics.Client) (int, error)
	TrackInternal(ctx context.Context, userID uuid.UUID, eventName string, properties map[string]interface{})
	ListForUser(ctx context.Context, userID uuid.UUID, in analytics.ListInput) (*analytics.ListResult, error)
	List(ctx context.Context, in analytics.ListInput) (*analytics.ListResult, error)
	Summary(ctx context.Context, from, to *time.Time) (*analytics.Summary, error)
}

// MLService proxies coaching requests with local fallbacks.
type MLService interface {
	Recommendations(ctx context.Context, userID uuid.UUID) (*ml.Recommendations, error)
	Predictions(ctx context.Context, userID uuid.UUID, race string) ([]ml.Prediction, error)
	Fatigue(ctx context.Context, userID uuid.UUID) (*ml.Fatigue, error)
	TrainingLoad(ctx context.Context, userID uuid.UUID) (*ml.TrainingLoad, error)
	Health(ctx context.Context) ml.Health
}

// Pinger checks a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the dependencies of the HTTP layer. Strava and SyncAll may be
// nil when the integration is disabled; Hub may be nil to disable /ws.
type Services struct {
	Auth       AuthService
	Users      UserService
	Strava     StravaService
	SyncAll    SyncTrigger
	Activities ActivityService
	Analytics  AnalyticsService
	ML         MLService
	Hub        *websocket.Hub
	DB         Pinger
}

// Handler implements the HTTP endpoints.
type Handler struct {
	svc       Services
	cfg       *config.Config
	version   string
	startTime time.Time
}

// NewHandler creates a handler over svc.
func NewHandler(cfg *config.Config, svc Services, version string) *Handler {
	return &Handler{
		svc:       svc,
		cfg:       cfg,
		version:   version,
		startTime: time.Now(),
	}
}
