// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/aeropacer/internal/auth"
	"github.com/tomtom215/aeropacer/internal/authz"
	"github.com/tomtom215/aeropacer/internal/config"
	"github.com/tomtom215/aeropacer/internal/ml"
	"github.com/tomtom215/aeropacer/internal/models"
)

const (
	testSecret   = "test-secret-key-for-api-tests-0123456789"
	testFrontend = "https://app.aeropacer.test"
)

type testEnv struct {
	t   *testing.T
	cfg *config.Config
	jwt *auth.JWTManager

	auth       *fakeAuth
	users      *fakeUsers
	strava     *fakeStrava
	trigger    *fakeTrigger
	activities *fakeActivities
	analytics  *fakeAnalytics
	ml         *fakeML
	db         *fakePinger

	handler *Handler
	server  http.Handler
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{FrontendURL: testFrontend},
		Security: config.SecurityConfig{
			JWTSecret:         testSecret,
			SessionTimeout:    time.Hour,
			RateLimitReqs:     1000,
			RateLimitWindow:   time.Minute,
			AuthRateLimitReqs: 100,
			RateLimitDisabled: true,
			CORSOrigins:       []string{testFrontend},
		},
		API: config.APIConfig{DefaultPageSize: 20, MaxPageSize: 100},
	}
}

// newTestEnv builds a router over fakes. mutate may adjust services before
// the router is built.
func newTestEnv(t *testing.T, mutate func(*Services)) *testEnv {
	t.Helper()

	cfg := testConfig()
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	enforcer, err := authz.NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(enforcer.Close)

	e := &testEnv{
		t:          t,
		cfg:        cfg,
		jwt:        jwtManager,
		auth:       &fakeAuth{},
		users:      &fakeUsers{},
		strava:     &fakeStrava{},
		trigger:    &fakeTrigger{},
		activities: &fakeActivities{},
		analytics:  &fakeAnalytics{},
		ml:         &fakeML{health: ml.Health{Enabled: true, Available: true, Status: "healthy"}},
		db:         &fakePinger{},
	}

	svc := Services{
		Auth:       e.auth,
		Users:      e.users,
		Strava:     e.strava,
		SyncAll:    e.trigger,
		Activities: e.activities,
		Analytics:  e.analytics,
		ML:         e.ml,
		DB:         e.db,
	}
	if mutate != nil {
		mutate(&svc)
	}

	e.handler = NewHandler(cfg, svc, "test")
	e.server = NewRouter(e.handler, auth.NewMiddleware(jwtManager), authz.NewMiddleware(enforcer)).Setup()
	return e
}

// token issues a JWT for a fresh user with role.
func (e *testEnv) token(role string) (string, uuid.UUID) {
	e.t.Helper()
	id := uuid.New()
	tok, _, err := e.jwt.GenerateToken(id, "runner@example.com", role)
	if err != nil {
		e.t.Fatalf("GenerateToken() error = %v", err)
	}
	return tok, id
}

func (e *testEnv) do(method, target, body, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *models.APIError `json:"error"`
	Meta    models.Meta      `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %q: %v", string(env.Data), err)
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) envelope {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Success {
		t.Fatal("success = true, want false")
	}
	if env.Error == nil || env.Error.Code != code {
		t.Fatalf("error = %+v, want code %s", env.Error, code)
	}
	return env
}
