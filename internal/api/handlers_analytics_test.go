// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package api

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/aeropacer/internal/validation"
)

func TestTrackEvent_AnonymousAndAuthenticated(t *testing.T) {
	e := newTestEnv(t, nil)

	rec := e.do(http.MethodPost, "/api/v1/analytics/events", `{"event_name":"page_view","properties":{"path":"/"}}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("anonymous status = %d (body %s)", rec.Code, rec.Body.String())
	}

	tok, userID := e.token("user")
	rec = e.do(http.MethodPost, "/api/v1/analytics/events", `{"event_name":"page_view"}`, tok)
	if rec.Code != http.StatusCreated {
		t.Fatalf("authenticated status = %d", rec.Code)
	}

	if len(e.analytics.clients) != 2 {
		t.Fatalf("tracked %d events, want 2", len(e.analytics.clients))
	}
	if e.analytics.clients[0].UserID != nil {
		t.Errorf("anonymous event has user %v", *e.analytics.clients[0].UserID)
	}
	if got := e.analytics.clients[1].UserID; got == nil || *got != userID {
		t.Errorf("authenticated event user = %v, want %s", got, userID)
	}
	if e.analytics.clients[1].IP == "" {
		t.Error("client IP not recorded")
	}
}

func TestTrackEvent_InvalidTokenStillAnonymous(t *testing.T) {
	e := newTestEnv(t, nil)

	rec := e.do(http.MethodPost, "/api/v1/analytics/events", `{"event_name":"page_view"}`, "garbage")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	if e.analytics.clients[0].UserID != nil {
		t.Error("invalid token produced a user id")
	}
}

func TestTrackEventBatch(t *testing.T) {
	e := newTestEnv(t, nil)

	rec := e.do(http.MethodPost, "/api/v1/analytics/events/batch",
		`{"events":[{"event_name":"a_b"},{"event_name":"c_d"}]}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]int
	decodeData(t, decodeEnvelope(t, rec), &body)
	if body["recorded"] != 2 {
		t.Errorf("recorded = %d, want 2", body["recorded"])
	}

	e.analytics.err = validation.NewError("events", "max", "events must contain at most 50 items")
	rec = e.do(http.MethodPost, "/api/v1/analytics/events/batch", `{"events":[]}`, "")
	env := expectError(t, rec, http.StatusBadRequest, ErrCodeValidation)
	if env.Error.Details["field"] != "events" {
		t.Errorf("details = %v", env.Error.Details)
	}
}

func TestListMyEvents_ScopedToCaller(t *testing.T) {
	e := newTestEnv(t, nil)
	tok, userID := e.token("user")

	rec := e.do(http.MethodGet, "/api/v1/analytics/events?event_name=page_view&limit=5", "", tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	in := e.analytics.listInput
	if in.UserID == nil || *in.UserID != userID || in.EventName != "page_view" || in.Limit != 5 {
		t.Errorf("list input = %+v", in)
	}
}

func TestAdminListEvents_UserFilter(t *testing.T) {
	e := newTestEnv(t, nil)
	tok, _ := e.token("admin")
	target := uuid.New()

	rec := e.do(http.MethodGet, "/api/v1/admin/analytics/events?user_id="+target.String(), "", tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if in := e.analytics.listInput; in.UserID == nil || *in.UserID != target {
		t.Errorf("user filter = %v", in.UserID)
	}

	expectError(t, e.do(http.MethodGet, "/api/v1/admin/analytics/events?user_id=nope", "", tok), http.StatusBadRequest, ErrCodeBadRequest)
}
