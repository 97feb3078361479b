// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/aeropacer/internal/activities"
	"github.com/tomtom215/aeropacer/internal/analytics"
	"github.com/tomtom215/aeropacer/internal/auth"
	"github.com/tomtom215/aeropacer/internal/ml"
	"github.com/tomtom215/aeropacer/internal/models"
	"github.com/tomtom215/aeropacer/internal/strava"
	"github.com/tomtom215/aeropacer/internal/users"
)

type fakeAuth struct {
	err        error
	registered []auth.RegisterInput
	clients    []auth.ClientInfo
}

func (f *fakeAuth) session(email string) *auth.Session {
	return &auth.Session{
		Token:     "issued-token",
		ExpiresAt: time.Now().Add(time.Hour),
		User:      models.UserResponse{ID: uuid.New(), Email: email, Role: models.RoleUser},
	}
}

func (f *fakeAuth) Register(_ context.Context, in auth.RegisterInput, client auth.ClientInfo) (*auth.Session, error) {
	f.registered = append(f.registered, in)
	f.clients = append(f.clients, client)
	if f.err != nil {
		return nil, f.err
	}
	return f.session(in.Email), nil
}

func (f *fakeAuth) Login(_ context.Context, in auth.LoginInput, client auth.ClientInfo) (*auth.Session, error) {
	f.clients = append(f.clients, client)
	if f.err != nil {
		return nil, f.err
	}
	return f.session(in.Email), nil
}

func (f *fakeAuth) Me(_ context.Context, userID uuid.UUID) (*models.UserResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.UserResponse{ID: userID, Email: "runner@example.com"}, nil
}

func (f *fakeAuth) Refresh(_ context.Context, claims *auth.Claims) (*auth.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session(claims.Email), nil
}

type fakeUsers struct {
	err       error
	changedIP string
	deleted   []uuid.UUID
}

func (f *fakeUsers) GetProfile(_ context.Context, userID uuid.UUID) (*models.UserResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.UserResponse{ID: userID}, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, userID uuid.UUID, in users.UpdateProfileInput) (*models.UserResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	resp := &models.UserResponse{ID: userID}
	if in.FirstName != nil {
		resp.FirstName = *in.FirstName
	}
	return resp, nil
}

func (f *fakeUsers) UpdatePreferences(_ context.Context, userID uuid.UUID, _ users.UpdatePreferencesInput) (*models.UserResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.UserResponse{ID: userID}, nil
}

func (f *fakeUsers) ChangePassword(_ context.Context, _ uuid.UUID, _ users.ChangePasswordInput, ip string) error {
	f.changedIP = ip
	return f.err
}

func (f *fakeUsers) DeleteAccount(_ context.Context, userID uuid.UUID, _ users.DeleteAccountInput) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, userID)
	return nil
}

type fakeStrava struct {
	err       error
	callbacks []strava.CallbackInput
	syncOpts  []strava.SyncOptions
	events    []strava.WebhookEvent
}

func (f *fakeStrava) AuthorizeURL(_ context.Context, _ uuid.UUID) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://www.strava.com/oauth/authorize?state=abc", nil
}

func (f *fakeStrava) HandleCallback(_ context.Context, in strava.CallbackInput) (*strava.ConnectResult, error) {
	f.callbacks = append(f.callbacks, in)
	if f.err != nil {
		return nil, f.err
	}
	return &strava.ConnectResult{AthleteID: 42}, nil
}

func (f *fakeStrava) Status(_ context.Context, _ uuid.UUID) (*strava.Status, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &strava.Status{Connected: true}, nil
}

func (f *fakeStrava) Sync(_ context.Context, _ uuid.UUID, opts strava.SyncOptions) (*strava.SyncResult, error) {
	f.syncOpts = append(f.syncOpts, opts)
	if f.err != nil {
		return nil, f.err
	}
	return &strava.SyncResult{Fetched: 3, Created: 2, Skipped: 1, Full: opts.Full}, nil
}

func (f *fakeStrava) Disconnect(_ context.Context, _ uuid.UUID) error {
	return f.err
}

// webhookSubscriptionID is the only subscription fakeStrava accepts events from.
const webhookSubscriptionID = 120475

func (f *fakeStrava) HandleWebhookEvent(_ context.Context, ev strava.WebhookEvent) error {
	if ev.SubscriptionID != webhookSubscriptionID {
		return strava.ErrWebhookVerification
	}
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakeStrava) VerifyWebhook(mode, token, challenge string) (string, error) {
	if mode != "subscribe" || token != "verify-me" || challenge == "" {
		return "", strava.ErrWebhookVerification
	}
	return challenge, nil
}

type fakeTrigger struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTrigger) TriggerAll() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

type fakeActivities struct {
	err       error
	listInput activities.ListInput
	statsIn   activities.StatsInput
	items     []models.Activity
}

func (f *fakeActivities) List(_ context.Context, _ uuid.UUID, in activities.ListInput) (*activities.ListResult, error) {
	f.listInput = in
	if f.err != nil {
		return nil, f.err
	}
	return &activities.ListResult{
		Activities: f.items,
		Page:       models.Page{Total: 57, Limit: 20, Offset: in.Offset},
	}, nil
}

func (f *fakeActivities) Get(_ context.Context, userID, id uuid.UUID) (*models.Activity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Activity{ID: id, UserID: userID, Name: "Morning Run"}, nil
}

func (f *fakeActivities) Create(_ context.Context, userID uuid.UUID, in activities.CreateInput) (*models.Activity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Activity{ID: uuid.New(), UserID: userID, Name: in.Name, Type: in.Type}, nil
}

func (f *fakeActivities) Update(_ context.Context, userID, id uuid.UUID, in activities.UpdateInput) (*models.Activity, error) {
	if f.err != nil {
		return nil, f.err
	}
	a := &models.Activity{ID: id, UserID: userID}
	if in.Name != nil {
		a.Name = *in.Name
	}
	return a, nil
}

func (f *fakeActivities) Delete(_ context.Context, _, _ uuid.UUID) error {
	return f.err
}

func (f *fakeActivities) Stats(_ context.Context, _ uuid.UUID, in activities.StatsInput) (*models.StatsResponse, error) {
	f.statsIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.StatsResponse{Period: in.Period}, nil
}

func (f *fakeActivities) Summary(_ context.Context, _ uuid.UUID) (*models.ActivitySummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.ActivitySummary{CurrentStreakDays: 4}, nil
}

type fakeAnalytics struct {
	mu        sync.Mutex
	err       error
	clients   []analytics.Client
	internal  []string
	listInput analytics.ListInput
}

func (f *fakeAnalytics) Track(_ context.Context, in analytics.TrackInput, client analytics.Client) (*models.AnalyticsEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients = append(f.clients, client)
	if f.err != nil {
		return nil, f.err
	}
	return &models.AnalyticsEvent{ID: uuid.New(), EventName: in.EventName, UserID: client.UserID}, nil
}

func (f *fakeAnalytics) TrackBatch(_ context.Context, in analytics.BatchInput, client analytics.Client) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients = append(f.clients, client)
	if f.err != nil {
		return 0, f.err
	}
	return len(in.Events), nil
}

func (f *fakeAnalytics) TrackInternal(_ context.Context, _ uuid.UUID, eventName string, _ map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.internal = append(f.internal, eventName)
}

func (f *fakeAnalytics) ListForUser(_ context.Context, userID uuid.UUID, in analytics.ListInput) (*analytics.ListResult, error) {
	in.UserID = &userID
	return f.List(context.Background(), in)
}

func (f *fakeAnalytics) List(_ context.Context, in analytics.ListInput) (*analytics.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listInput = in
	if f.err != nil {
		return nil, f.err
	}
	return &analytics.ListResult{Page: models.Page{Total: 0, Limit: 20}}, nil
}

func (f *fakeAnalytics) Summary(_ context.Context, from, to *time.Time) (*analytics.Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := &analytics.Summary{TotalEvents: 12, UniqueUsers: 3}
	if from != nil {
		s.From = *from
	}
	if to != nil {
		s.To = *to
	}
	return s, nil
}

type fakeML struct {
	race   string
	health ml.Health
}

func (f *fakeML) Recommendations(_ context.Context, _ uuid.UUID) (*ml.Recommendations, error) {
	return &ml.Recommendations{Source: ml.SourceFallback}, nil
}

func (f *fakeML) Predictions(_ context.Context, _ uuid.UUID, race string) ([]ml.Prediction, error) {
	f.race = race
	if race != "" {
		if _, ok := ml.RaceDistances[race]; !ok {
			return nil, ml.ErrUnsupportedDistance
		}
	}
	return []ml.Prediction{{Race: race, Source: ml.SourceFallback}}, nil
}

func (f *fakeML) Fatigue(_ context.Context, _ uuid.UUID) (*ml.Fatigue, error) {
	return &ml.Fatigue{Source: ml.SourceFallback}, nil
}

func (f *fakeML) TrainingLoad(_ context.Context, _ uuid.UUID) (*ml.TrainingLoad, error) {
	return &ml.TrainingLoad{RiskLevel: ml.RiskInsufficientData, Source: ml.SourceFallback}, nil
}

func (f *fakeML) Health(_ context.Context) ml.Health {
	return f.health
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(_ context.Context) error { return f.err }
