// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package config

import (
	"strings"
	"testing"
	"time"
)

// validConfig returns a defaultConfig with the required secrets filled in.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = testJWTSecret
	cfg.Strava.ClientID = "12345"
	cfg.Strava.ClientSecret = "strava-client-secret"
	cfg.Strava.RedirectURI = "http://localhost:8080/api/v1/strava/callback"
	return cfg
}

// assertErrorContains checks that error occurred and contains the expected substring
func assertErrorContains(t *testing.T, err error, expected string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", expected)
	}
	if !strings.Contains(err.Error(), expected) {
		t.Errorf("error = %v, want error containing %q", err, expected)
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing jwt secret", func(c *Config) { c.Security.JWTSecret = "" }, "JWT_SECRET is required"},
		{"short jwt secret", func(c *Config) { c.Security.JWTSecret = "abc" }, "at least 32"},
		{"placeholder secret in production", func(c *Config) {
			c.Server.Environment = "production"
			c.Security.JWTSecret = "changeme-changeme-changeme-changeme-1234"
			c.Security.CORSOrigins = []string{"https://app.example.org"}
		}, "placeholder"},
		{"wildcard cors in production", func(c *Config) {
			c.Server.Environment = "production"
			c.Security.CORSOrigins = []string{"*"}
		}, "wildcard"},
		{"unknown environment", func(c *Config) { c.Server.Environment = "qa" }, "ENVIRONMENT"},
		{"missing database host", func(c *Config) { c.Database.Host = "" }, "DATABASE_URL"},
		{"bad database url", func(c *Config) { c.Database.URL = "mysql://db/x" }, "DATABASE_URL is invalid"},
		{"idle above open conns", func(c *Config) { c.Database.MaxIdleConns = 100 }, "DATABASE_MAX_IDLE_CONNS"},
		{"strava without secret", func(c *Config) { c.Strava.ClientSecret = "" }, "STRAVA_CLIENT_ID"},
		{"strava redirect with fragment", func(c *Config) {
			c.Strava.RedirectURI = "https://app.example.org/cb#frag"
		}, "fragment"},
		{"strava base url with path", func(c *Config) {
			c.Strava.BaseURL = "https://www.strava.com/api/v3"
		}, "base URL only"},
		{"negative webhook subscription", func(c *Config) { c.Strava.WebhookSubscriptionID = -1 }, "STRAVA_WEBHOOK_SUBSCRIPTION_ID"},
		{"webhook subscription without verify token", func(c *Config) {
			c.Strava.WebhookSubscriptionID = 120475
			c.Strava.WebhookVerifyToken = ""
		}, "STRAVA_WEBHOOK_VERIFY_TOKEN"},
		{"ml without url", func(c *Config) { c.ML.URL = "" }, "ML_SERVICE_URL"},
		{"sync interval too short", func(c *Config) { c.Sync.Interval = 10 * time.Second }, "SYNC_INTERVAL"},
		{"sync page size too large", func(c *Config) { c.Sync.PageSize = 500 }, "SYNC_PAGE_SIZE"},
		{"no activity types", func(c *Config) { c.Sync.ActivityTypes = nil }, "SYNC_ACTIVITY_TYPES"},
		{"bad nats url", func(c *Config) { c.Events.NATSURL = "http://nats:4222" }, "NATS_URL"},
		{"embedded nats bad port", func(c *Config) {
			c.Events.Embedded = true
			c.Events.EmbeddedPort = 70000
		}, "NATS_EMBEDDED_PORT"},
		{"badger without path", func(c *Config) {
			c.StateStore.Backend = "badger"
			c.StateStore.Path = ""
		}, "STATE_STORE_PATH"},
		{"page size mismatch", func(c *Config) { c.API.MaxPageSize = 5 }, "API_MAX_PAGE_SIZE"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assertErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestValidate_DisabledIntegrationsSkipChecks(t *testing.T) {
	cfg := validConfig()
	cfg.Strava.Enabled = false
	cfg.Strava.ClientID = ""
	cfg.Strava.ClientSecret = ""
	cfg.ML.Enabled = false
	cfg.ML.URL = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error with integrations disabled: %v", err)
	}
}

func TestValidateRateLimits(t *testing.T) {
	tests := []struct {
		name    string
		reqs    int
		window  time.Duration
		wantErr bool
	}{
		{"valid", 100, time.Minute, false},
		{"zero requests", 0, time.Minute, true},
		{"too many requests", 200000, time.Minute, true},
		{"window too short", 100, 500 * time.Millisecond, true},
		{"window too long", 100, 2 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Security.RateLimitReqs = tt.reqs
			cfg.Security.RateLimitWindow = tt.window
			err := cfg.validateRateLimits()
			if (err != nil) != tt.wantErr {
				t.Errorf("validateRateLimits() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("disabled skips bounds", func(t *testing.T) {
		cfg := validConfig()
		cfg.Security.RateLimitDisabled = true
		cfg.Security.RateLimitReqs = 0
		if err := cfg.validateRateLimits(); err != nil {
			t.Errorf("validateRateLimits() error = %v, want nil when disabled", err)
		}
	})
}

func TestDatabaseDSN(t *testing.T) {
	t.Run("url wins", func(t *testing.T) {
		d := DatabaseConfig{URL: "postgres://a:b@h:1/n", Host: "ignored"}
		if got := d.DSN(); got != "postgres://a:b@h:1/n" {
			t.Errorf("DSN() = %q", got)
		}
	})

	t.Run("built from parts", func(t *testing.T) {
		d := DatabaseConfig{Host: "db", Port: 5433, User: "runner", Password: "p@ss", Name: "pace", SSLMode: "require"}
		got := d.DSN()
		want := "postgres://runner:p%40ss@db:5433/pace?sslmode=require"
		if got != want {
			t.Errorf("DSN() = %q, want %q", got, want)
		}
	})
}

func TestValidateHTTPURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"http://localhost:8000", false},
		{"https://coach.example.org/", false},
		{"ftp://coach.example.org", true},
		{"http://", true},
		{"http://coach.example.org/v1", true},
		{"http://coach.example.org?x=1", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := validateHTTPURL(tt.url, "TEST_URL")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateHTTPURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestContainsPlaceholder(t *testing.T) {
	if !containsPlaceholder("please-CHANGEME-now") {
		t.Error("expected CHANGEME to be detected")
	}
	if containsPlaceholder(testJWTSecret) {
		t.Error("random secret should not be flagged as placeholder")
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := s.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q, want 127.0.0.1:8080", got)
	}
}
