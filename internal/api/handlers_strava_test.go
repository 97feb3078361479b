// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package api

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/aeropacer/internal/strava"
)

func TestStravaCallback_Redirects(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus string
		wantReason string
	}{
		{"connected", nil, "connected", ""},
		{"denied", strava.ErrAuthorizationDenied, "error", "denied"},
		{"bad state", strava.ErrInvalidState, "error", "invalid_state"},
		{"upstream", &strava.APIError{StatusCode: 500, Endpoint: "oauth/token"}, "error", "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t, nil)
			e.strava.err = tt.err

			rec := e.do(http.MethodGet, "/api/v1/strava/callback?state=s1&code=c1&scope=read,activity:read_all", "", "")
			if rec.Code != http.StatusFound {
				t.Fatalf("status = %d, want 302", rec.Code)
			}

			loc, err := url.Parse(rec.Header().Get("Location"))
			if err != nil {
				t.Fatalf("parse Location: %v", err)
			}
			if loc.Scheme+"://"+loc.Host != testFrontend || loc.Path != stravaRedirectPath {
				t.Errorf("Location = %s", loc)
			}
			if got := loc.Query().Get("strava"); got != tt.wantStatus {
				t.Errorf("strava = %q, want %q", got, tt.wantStatus)
			}
			if got := loc.Query().Get("reason"); got != tt.wantReason {
				t.Errorf("reason = %q, want %q", got, tt.wantReason)
			}

			in := e.strava.callbacks[0]
			if in.State != "s1" || in.Code != "c1" || in.Scope != "read,activity:read_all" {
				t.Errorf("callback input = %+v", in)
			}
		})
	}
}

func TestStravaSync(t *testing.T) {
	e := newTestEnv(t, nil)
	tok, _ := e.token("user")

	rec := e.do(http.MethodPost, "/api/v1/strava/sync?full=true", "", tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	if len(e.strava.syncOpts) != 1 || !e.strava.syncOpts[0].Full {
		t.Errorf("sync opts = %+v", e.strava.syncOpts)
	}

	expectError(t, e.do(http.MethodPost, "/api/v1/strava/sync?full=maybe", "", tok), http.StatusBadRequest, ErrCodeBadRequest)
}

func TestStrava_ErrorCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not connected", strava.ErrNotConnected, http.StatusConflict, ErrCodeStravaNotConnected},
		{"in progress", strava.ErrSyncInProgress, http.StatusConflict, ErrCodeSyncInProgress},
		{"upstream", &strava.APIError{StatusCode: 503, Endpoint: "athlete/activities"}, http.StatusBadGateway, ErrCodeExternalService},
		{"breaker open", gobreaker.ErrOpenState, http.StatusBadGateway, ErrCodeExternalService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t, nil)
			e.strava.err = tt.err
			tok, _ := e.token("user")
			expectError(t, e.do(http.MethodPost, "/api/v1/strava/sync", "", tok), tt.status, tt.code)
		})
	}
}

func TestStravaConnectStatusDisconnect(t *testing.T) {
	e := newTestEnv(t, nil)
	tok, _ := e.token("user")

	rec := e.do(http.MethodGet, "/api/v1/strava/connect", "", tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("connect status = %d", rec.Code)
	}
	var body map[string]string
	decodeData(t, decodeEnvelope(t, rec), &body)
	if body["authorization_url"] == "" {
		t.Error("missing authorization_url")
	}

	if rec := e.do(http.MethodGet, "/api/v1/strava/status", "", tok); rec.Code != http.StatusOK {
		t.Fatalf("status status = %d", rec.Code)
	}
	if rec := e.do(http.MethodDelete, "/api/v1/strava/disconnect", "", tok); rec.Code != http.StatusOK {
		t.Fatalf("disconnect status = %d", rec.Code)
	}
}

func TestStravaWebhook(t *testing.T) {
	e := newTestEnv(t, nil)

	rec := e.do(http.MethodGet, "/api/v1/strava/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=15f7d1a91c1f40f8", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"hub.challenge\":\"15f7d1a91c1f40f8\"}\n" {
		t.Errorf("verify body = %q", got)
	}

	rec = e.do(http.MethodGet, "/api/v1/strava/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=x", "", "")
	expectError(t, rec, http.StatusForbidden, ErrCodeWebhookVerification)

	// Strava may add fields; they are ignored.
	rec = e.do(http.MethodPost, "/api/v1/strava/webhook",
		`{"object_type":"activity","object_id":1360128428,"aspect_type":"create","owner_id":134815,"subscription_id":120475,"event_time":1516126040,"updates":{},"extra":"ok"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("event status = %d (body %s)", rec.Code, rec.Body.String())
	}
	if len(e.strava.events) != 1 || e.strava.events[0].OwnerID != 134815 {
		t.Errorf("events = %+v", e.strava.events)
	}

	// An event from another subscription must not reach the account.
	rec = e.do(http.MethodPost, "/api/v1/strava/webhook",
		`{"object_type":"athlete","object_id":134815,"aspect_type":"update","owner_id":134815,"subscription_id":424242,"event_time":1516126040,"updates":{"authorized":"false"}}`, "")
	expectError(t, rec, http.StatusForbidden, ErrCodeWebhookVerification)
	if len(e.strava.events) != 1 {
		t.Errorf("rejected event was handled: %+v", e.strava.events)
	}
}
