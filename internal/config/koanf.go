// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/aeropacer/config.yaml",
	"/etc/aeropacer/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
			FrontendURL:     "http://localhost:3000",
		},
		Database: DatabaseConfig{
			Host:               "localhost",
			Port:               5432,
			User:               "aeropacer",
			Name:               "aeropacer",
			SSLMode:            "disable",
			MaxOpenConns:       25,
			MaxIdleConns:       5,
			ConnMaxLifetime:    30 * time.Minute,
			SlowQueryThreshold: 200 * time.Millisecond,
			AutoMigrate:        true,
		},
		Security: SecurityConfig{
			SessionTimeout:    24 * time.Hour,
			CookieSecure:      false,
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			AuthRateLimitReqs: 10,
			CORSOrigins:       []string{"http://localhost:3000"},
			TrustedProxies:    []string{},
		},
		Strava: StravaConfig{
			Enabled:        true,
			BaseURL:        "https://www.strava.com",
			Scope:          "read,activity:read_all",
			RateLimit:      100,
			RateLimitBurst: 10,
			Timeout:        30 * time.Second,
			StateTTL:       10 * time.Minute,
		},
		ML: MLConfig{
			Enabled: true,
			URL:     "http://localhost:8000",
			Timeout: 10 * time.Second,
		},
		Sync: SyncConfig{
			Interval:         6 * time.Hour,
			Lookback:         90 * 24 * time.Hour,
			Overlap:          time.Hour,
			PageSize:         50,
			MaxPages:         20,
			ActivityTypes:    []string{"Run", "TrailRun", "VirtualRun", "Walk", "Hike"},
			TokenRefreshSkew: 5 * time.Minute,
		},
		Events: EventsConfig{
			NATSURL:       "",
			Embedded:      false,
			EmbeddedHost:  "127.0.0.1",
			EmbeddedPort:  4222,
			QueueGroup:    "aeropacer",
			CloseTimeout:  10 * time.Second,
			AckWait:       30 * time.Second,
			MaxReconnects: -1,
		},
		StateStore: StateStoreConfig{
			Backend:         "memory",
			Path:            "/data/state",
			CleanupInterval: 5 * time.Minute,
		},
		Cache: CacheConfig{
			StatsTTL: 5 * time.Minute,
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     200,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// STRAVA_CLIENT_ID -> strava.client_id
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
	"sync.activity_types",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf config paths.
var envMappings = map[string]string{
	// Server
	"port":                  "server.port",
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",
	"frontend_url":          "server.frontend_url",

	// Database
	"database_url":                  "database.url",
	"database_host":                 "database.host",
	"database_port":                 "database.port",
	"database_user":                 "database.user",
	"database_password":             "database.password",
	"database_name":                 "database.name",
	"database_ssl_mode":             "database.ssl_mode",
	"database_max_open_conns":       "database.max_open_conns",
	"database_max_idle_conns":       "database.max_idle_conns",
	"database_conn_max_lifetime":    "database.conn_max_lifetime",
	"database_slow_query_threshold": "database.slow_query_threshold",
	"database_auto_migrate":         "database.auto_migrate",

	// Security
	"jwt_secret":          "security.jwt_secret",
	"session_timeout":     "security.session_timeout",
	"cookie_secure":       "security.cookie_secure",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"auth_rate_limit":     "security.auth_rate_limit_reqs",
	"cors_origins":        "security.cors_origins",
	"trusted_proxies":     "security.trusted_proxies",
	"casbin_model_path":   "security.casbin.model_path",
	"casbin_policy_path":  "security.casbin.policy_path",

	// Strava
	"strava_enabled":                 "strava.enabled",
	"strava_client_id":               "strava.client_id",
	"strava_client_secret":           "strava.client_secret",
	"strava_redirect_uri":            "strava.redirect_uri",
	"strava_base_url":                "strava.base_url",
	"strava_scope":                   "strava.scope",
	"strava_webhook_verify_token":    "strava.webhook_verify_token",
	"strava_webhook_subscription_id": "strava.webhook_subscription_id",
	"strava_rate_limit":              "strava.rate_limit",
	"strava_rate_limit_burst":        "strava.rate_limit_burst",
	"strava_timeout":                 "strava.timeout",
	"strava_state_ttl":               "strava.state_ttl",

	// ML service
	"ml_enabled":     "ml.enabled",
	"ml_service_url": "ml.url",
	"ml_timeout":     "ml.timeout",

	// Sync
	"sync_interval":           "sync.interval",
	"sync_lookback":           "sync.lookback",
	"sync_overlap":            "sync.overlap",
	"sync_page_size":          "sync.page_size",
	"sync_max_pages":          "sync.max_pages",
	"sync_activity_types":     "sync.activity_types",
	"sync_token_refresh_skew": "sync.token_refresh_skew",

	// Events
	"nats_url":            "events.nats_url",
	"nats_embedded":       "events.embedded",
	"nats_embedded_host":  "events.embedded_host",
	"nats_embedded_port":  "events.embedded_port",
	"nats_queue_group":    "events.queue_group",
	"nats_close_timeout":  "events.close_timeout",
	"nats_ack_wait":       "events.ack_wait",
	"nats_max_reconnects": "events.max_reconnects",

	// OAuth state store
	"state_store":                  "state_store.backend",
	"state_store_path":             "state_store.path",
	"state_store_cleanup_interval": "state_store.cleanup_interval",

	// Cache
	"stats_cache_ttl": "cache.stats_ttl",

	// API
	"api_default_page_size": "api.default_page_size",
	"api_max_page_size":     "api.max_page_size",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - STRAVA_CLIENT_ID -> strava.client_id
//   - DATABASE_URL -> database.url
//   - ML_SERVICE_URL -> ml.url
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	// Unmapped keys are skipped so unrelated environment variables don't pollute config
	return ""
}
