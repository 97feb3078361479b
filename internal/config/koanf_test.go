// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testJWTSecret = "k9Qm2vX7pL4rT8wZ1nB6cF3hJ5sD0gA9yU2eR7tI4oP"

// setRequiredEnv sets the minimum environment for LoadWithKoanf to validate.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", testJWTSecret)
	t.Setenv("STRAVA_CLIENT_ID", "12345")
	t.Setenv("STRAVA_CLIENT_SECRET", "strava-client-secret")
	t.Setenv("STRAVA_REDIRECT_URI", "http://localhost:8080/api/v1/strava/callback")
}

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Environment != "development" {
		t.Errorf("Server.Environment = %q, want development", cfg.Server.Environment)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want 5432", cfg.Database.Port)
	}
	if !cfg.Database.AutoMigrate {
		t.Error("Database.AutoMigrate should be true by default")
	}
	if cfg.Security.SessionTimeout != 24*time.Hour {
		t.Errorf("Security.SessionTimeout = %v, want 24h", cfg.Security.SessionTimeout)
	}
	if cfg.Strava.BaseURL != "https://www.strava.com" {
		t.Errorf("Strava.BaseURL = %q, want https://www.strava.com", cfg.Strava.BaseURL)
	}
	if cfg.Strava.Scope != "read,activity:read_all" {
		t.Errorf("Strava.Scope = %q", cfg.Strava.Scope)
	}
	if cfg.Sync.PageSize != 50 {
		t.Errorf("Sync.PageSize = %d, want 50", cfg.Sync.PageSize)
	}
	if cfg.Sync.Lookback != 90*24*time.Hour {
		t.Errorf("Sync.Lookback = %v, want 2160h", cfg.Sync.Lookback)
	}
	if len(cfg.Sync.ActivityTypes) != 5 {
		t.Errorf("Sync.ActivityTypes = %v, want 5 types", cfg.Sync.ActivityTypes)
	}
	if cfg.StateStore.Backend != "memory" {
		t.Errorf("StateStore.Backend = %q, want memory", cfg.StateStore.Backend)
	}
	if cfg.Events.NATSURL != "" {
		t.Errorf("Events.NATSURL = %q, want empty (in-process bus)", cfg.Events.NATSURL)
	}
	if cfg.ML.Timeout != 10*time.Second {
		t.Errorf("ML.Timeout = %v, want 10s", cfg.ML.Timeout)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"HTTP_PORT", "server.port"},
		{"PORT", "server.port"},
		{"DATABASE_URL", "database.url"},
		{"JWT_SECRET", "security.jwt_secret"},
		{"STRAVA_CLIENT_ID", "strava.client_id"},
		{"STRAVA_WEBHOOK_VERIFY_TOKEN", "strava.webhook_verify_token"},
		{"STRAVA_WEBHOOK_SUBSCRIPTION_ID", "strava.webhook_subscription_id"},
		{"ML_SERVICE_URL", "ml.url"},
		{"SYNC_ACTIVITY_TYPES", "sync.activity_types"},
		{"NATS_URL", "events.nats_url"},
		{"STATE_STORE", "state_store.backend"},
		{"LOG_LEVEL", "logging.level"},
		{"HOME", ""},
		{"PATH", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := envTransformFunc(tt.input); result != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	t.Run("no config file exists", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		if result := findConfigFile(); result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})

	t.Run("config.yaml exists", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "config.yaml")
		if err := os.WriteFile(configPath, []byte("server:\n  port: 9000\n"), 0o644); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		defer os.Remove(configPath)

		t.Setenv(ConfigPathEnvVar, "")
		if result := findConfigFile(); result != "config.yaml" {
			t.Errorf("findConfigFile() = %q, want config.yaml", result)
		}
	})

	t.Run("CONFIG_PATH env var takes precedence", func(t *testing.T) {
		customPath := filepath.Join(tmpDir, "custom.yaml")
		if err := os.WriteFile(customPath, []byte("server:\n  port: 9000\n"), 0o644); err != nil {
			t.Fatalf("Failed to create custom config file: %v", err)
		}
		t.Setenv(ConfigPathEnvVar, customPath)
		if result := findConfigFile(); result != customPath {
			t.Errorf("findConfigFile() = %q, want %q", result, customPath)
		}
	})
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SYNC_PAGE_SIZE", "100")
	t.Setenv("SYNC_ACTIVITY_TYPES", "Run, TrailRun")
	t.Setenv("CORS_ORIGINS", "https://app.example.org,https://admin.example.org")
	t.Setenv("DATABASE_URL", "postgres://runner:secret@db:5432/aeropacer?sslmode=disable")
	t.Setenv("STRAVA_WEBHOOK_VERIFY_TOKEN", "hook-token")
	t.Setenv("STRAVA_WEBHOOK_SUBSCRIPTION_ID", "120475")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Sync.PageSize != 100 {
		t.Errorf("Sync.PageSize = %d, want 100", cfg.Sync.PageSize)
	}
	if len(cfg.Sync.ActivityTypes) != 2 || cfg.Sync.ActivityTypes[1] != "TrailRun" {
		t.Errorf("Sync.ActivityTypes = %v, want [Run TrailRun]", cfg.Sync.ActivityTypes)
	}
	if len(cfg.Security.CORSOrigins) != 2 {
		t.Errorf("Security.CORSOrigins = %v, want 2 origins", cfg.Security.CORSOrigins)
	}
	if cfg.Database.DSN() != "postgres://runner:secret@db:5432/aeropacer?sslmode=disable" {
		t.Errorf("Database.DSN() = %q", cfg.Database.DSN())
	}
	if cfg.Strava.WebhookSubscriptionID != 120475 {
		t.Errorf("Strava.WebhookSubscriptionID = %d, want 120475", cfg.Strava.WebhookSubscriptionID)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	setRequiredEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 7000
  environment: staging
ml:
  url: http://coach.internal:8000
  timeout: 3s
sync:
  max_pages: 5
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Server.Environment != "staging" {
		t.Errorf("Server.Environment = %q, want staging", cfg.Server.Environment)
	}
	if cfg.ML.URL != "http://coach.internal:8000" {
		t.Errorf("ML.URL = %q", cfg.ML.URL)
	}
	if cfg.ML.Timeout != 3*time.Second {
		t.Errorf("ML.Timeout = %v, want 3s", cfg.ML.Timeout)
	}
	if cfg.Sync.MaxPages != 5 {
		t.Errorf("Sync.MaxPages = %d, want 5", cfg.Sync.MaxPages)
	}
}

func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	setRequiredEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("server:\n  port: 7000\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)
	t.Setenv("HTTP_PORT", "7100")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("Server.Port = %d, want 7100 (env overrides file)", cfg.Server.Port)
	}
}

func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"short jwt secret", map[string]string{"JWT_SECRET": "too-short"}},
		{"missing strava credentials", map[string]string{"STRAVA_CLIENT_SECRET": ""}},
		{"invalid port", map[string]string{"HTTP_PORT": "70000"}},
		{"invalid state store", map[string]string{"STATE_STORE": "redis"}},
		{"invalid ml url", map[string]string{"ML_SERVICE_URL": "ftp://coach"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadWithKoanf(); err == nil {
				t.Error("LoadWithKoanf() expected validation error, got nil")
			}
		})
	}
}
