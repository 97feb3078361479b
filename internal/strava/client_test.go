// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package strava

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/tomtom215/aeropacer/internal/circuitbreaker"
	"github.com/tomtom215/aeropacer/internal/config"
	"github.com/tomtom215/aeropacer/internal/testinfra"
)

const testSubscriptionID = 120475

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Strava: config.StravaConfig{
			Enabled:            true,
			ClientID:           testinfra.MockStravaClientID,
			ClientSecret:       testinfra.MockStravaClientSecret,
			RedirectURI:        "http://localhost:8080/api/v1/strava/callback",
			BaseURL:            baseURL,
			Scope:              "read,activity:read_all",
			WebhookVerifyToken: "hook-token",
			WebhookSubscriptionID: testSubscriptionID,
			RateLimit:          100000,
			RateLimitBurst:     100,
			Timeout:            5 * time.Second,
			StateTTL:           10 * time.Minute,
		},
		Sync: config.SyncConfig{
			Lookback:         30 * 24 * time.Hour,
			Overlap:          time.Hour,
			PageSize:         50,
			MaxPages:         10,
			ActivityTypes:    []string{"Run", "TrailRun", "VirtualRun", "Walk", "Hike"},
			TokenRefreshSkew: 5 * time.Minute,
		},
	}
}

func newTestClient(t *testing.T) (*Client, *testinfra.MockStravaServer) {
	t.Helper()
	m := testinfra.NewMockStravaServer(t)
	m.RetryAfter = "0"
	c := NewClient(&testConfig(m.URL()).Strava)
	c.retryBaseDelay = time.Millisecond
	return c, m
}

func TestClient_AuthorizeURL(t *testing.T) {
	c, m := newTestClient(t)

	raw := c.AuthorizeURL("state-abc", "http://localhost/cb", "read,activity:read_all")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse authorize URL: %v", err)
	}
	if got := u.Scheme + "://" + u.Host; got != m.URL() {
		t.Errorf("host = %q, want %q", got, m.URL())
	}
	if u.Path != "/oauth/authorize" {
		t.Errorf("path = %q", u.Path)
	}

	q := u.Query()
	want := map[string]string{
		"client_id":       testinfra.MockStravaClientID,
		"redirect_uri":    "http://localhost/cb",
		"response_type":   "code",
		"approval_prompt": "auto",
		"scope":           "read,activity:read_all",
		"state":           "state-abc",
	}
	for k, v := range want {
		if q.Get(k) != v {
			t.Errorf("query %s = %q, want %q", k, q.Get(k), v)
		}
	}
}

func TestClient_ExchangeCode(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	t.Run("valid code", func(t *testing.T) {
		tok, err := c.ExchangeCode(ctx, testinfra.MockStravaValidCode)
		if err != nil {
			t.Fatalf("ExchangeCode() error = %v", err)
		}
		if tok.AccessToken == "" || tok.RefreshToken == "" {
			t.Errorf("tokens missing: %+v", tok)
		}
		if tok.Athlete == nil || tok.Athlete.ID != testinfra.MockStravaAthleteID {
			t.Fatalf("athlete = %+v", tok.Athlete)
		}
		if !tok.Expiry().After(time.Now()) {
			t.Errorf("Expiry() = %v, want future", tok.Expiry())
		}
	})

	t.Run("bad code is a client error", func(t *testing.T) {
		_, err := c.ExchangeCode(ctx, "nope")
		if !IsClientError(err) {
			t.Fatalf("ExchangeCode() error = %v, want client error", err)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
			t.Errorf("error = %#v, want 400 APIError", err)
		}
	})
}

func TestClient_RefreshTokenRotates(t *testing.T) {
	c, m := newTestClient(t)
	ctx := context.Background()
	_, refresh := m.IssueTokens()

	tok, err := c.RefreshToken(ctx, refresh)
	if err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}
	if tok.RefreshToken == refresh {
		t.Error("refresh token was not rotated")
	}

	if _, err := c.RefreshToken(ctx, refresh); !IsClientError(err) {
		t.Errorf("reusing rotated refresh token error = %v, want client error", err)
	}
}

func TestClient_ListActivities(t *testing.T) {
	c, m := newTestClient(t)
	access, _ := m.IssueTokens()

	base := time.Now().Add(-72 * time.Hour).Truncate(time.Second)
	for i := 0; i < 5; i++ {
		m.AddActivities(testinfra.StravaActivity(int64(100+i), "Run", base.Add(time.Duration(i)*time.Hour), 5000, 1500))
	}

	page, err := c.ListActivities(context.Background(), access, ListOptions{
		After:   base.Add(30 * time.Minute),
		Page:    1,
		PerPage: 3,
	})
	if err != nil {
		t.Fatalf("ListActivities() error = %v", err)
	}
	if len(page) != 3 {
		t.Fatalf("len = %d, want 3", len(page))
	}
	if page[0].ID != 101 {
		t.Errorf("first ID = %d, want 101 (after filter)", page[0].ID)
	}
	if page[0].Raw["sport_type"] != "Run" {
		t.Errorf("Raw payload not kept: %v", page[0].Raw)
	}
	if !page[0].StartDate.Equal(base.Add(time.Hour)) {
		t.Errorf("StartDate = %v", page[0].StartDate)
	}

	if _, err := c.ListActivities(context.Background(), "bogus", ListOptions{Page: 1}); !IsClientError(err) {
		t.Errorf("bad token error = %v, want client error", err)
	}
}

func TestClient_RetriesRateLimit(t *testing.T) {
	c, m := newTestClient(t)
	access, _ := m.IssueTokens()

	m.RateLimitNext(2)
	athlete, err := c.GetAthlete(context.Background(), access)
	if err != nil {
		t.Fatalf("GetAthlete() error = %v", err)
	}
	if athlete.ID != testinfra.MockStravaAthleteID {
		t.Errorf("athlete ID = %d", athlete.ID)
	}
	if n := m.CountRequests("/api/v3/athlete"); n != 3 {
		t.Errorf("requests = %d, want 3 (two 429s then success)", n)
	}
}

func TestClient_RateLimitExhausted(t *testing.T) {
	c, m := newTestClient(t)
	access, _ := m.IssueTokens()

	m.RateLimitNext(10)
	_, err := c.GetAthlete(context.Background(), access)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("error = %v, want 429 APIError", err)
	}
	if !apiErr.Temporary() {
		t.Error("429 should be temporary")
	}
	if n := m.CountRequests("/api/v3/athlete"); n != defaultMaxRetries+1 {
		t.Errorf("requests = %d, want %d", n, defaultMaxRetries+1)
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	t.Run("client errors keep it closed", func(t *testing.T) {
		c, _ := newTestClient(t)
		for i := 0; i < 10; i++ {
			_, _ = c.GetAthlete(context.Background(), "bogus")
		}
		if state := c.breaker.State(); state != "closed" {
			t.Errorf("State() = %q, want closed", state)
		}
	})

	t.Run("server errors open it", func(t *testing.T) {
		c, m := newTestClient(t)
		access, _ := m.IssueTokens()
		m.FailNext(100)

		for i := 0; i < 5; i++ {
			if _, err := c.GetAthlete(context.Background(), access); err == nil {
				t.Fatal("expected failure")
			}
		}
		before := m.CountRequests("/api/v3/athlete")

		_, err := c.GetAthlete(context.Background(), access)
		if !circuitbreaker.IsOpen(err) {
			t.Fatalf("error = %v, want open circuit", err)
		}
		if after := m.CountRequests("/api/v3/athlete"); after != before {
			t.Errorf("open breaker still sent a request (%d -> %d)", before, after)
		}
	})
}

func TestClient_Deauthorize(t *testing.T) {
	c, m := newTestClient(t)
	access, _ := m.IssueTokens()

	if err := c.Deauthorize(context.Background(), access); err != nil {
		t.Fatalf("Deauthorize() error = %v", err)
	}
	if _, err := c.GetAthlete(context.Background(), access); !IsClientError(err) {
		t.Errorf("revoked token error = %v, want client error", err)
	}
}
