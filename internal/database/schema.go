// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package database

// schemaMigrations is the ordered list applied by Migrate.
var schemaMigrations = []Migration{
	{
		Timestamp: 20260105090000,
		Name:      "create_users",
		Up:        `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	email VARCHAR(255) NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	first_name VARCHAR(100) NOT NULL DEFAULT '',
	last_name VARCHAR(100) NOT NULL DEFAULT '',
	role VARCHAR(20) NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
	preferences JSONB NOT NULL DEFAULT '{}',
	profile JSONB NOT NULL DEFAULT '{}',
	strava_athlete_id BIGINT,
	last_login_at TIMESTAMPTZ,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email);
CREATE INDEX IF NOT EXISTS idx_users_strava_athlete ON users (strava_athlete_id) WHERE strava_athlete_id IS NOT NULL;
`,
		Down: `DROP TABLE IF EXISTS users;`,
	},
	{
		Timestamp: 20260105090100,
		Name:      "create_activities",
		Up:        `
CREATE TABLE IF NOT EXISTS activities (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	source VARCHAR(20) NOT NULL DEFAULT 'manual',
	external_id VARCHAR(64),
	name VARCHAR(255) NOT NULL,
	type VARCHAR(50) NOT NULL,
	start_date TIMESTAMPTZ NOT NULL,
	distance_km DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (distance_km >= 0),
	moving_time_sec INTEGER NOT NULL DEFAULT 0 CHECK (moving_time_sec >= 0),
	elapsed_time_sec INTEGER NOT NULL DEFAULT 0 CHECK (elapsed_time_sec >= 0),
	average_pace_sec_per_km DOUBLE PRECISION,
	average_speed_kmh DOUBLE PRECISION,
	max_speed_kmh DOUBLE PRECISION,
	elevation_gain_m DOUBLE PRECISION,
	average_heart_rate DOUBLE PRECISION,
	max_heart_rate DOUBLE PRECISION,
	average_cadence DOUBLE PRECISION,
	calories DOUBLE PRECISION,
	start_lat DOUBLE PRECISION,
	start_lng DOUBLE PRECISION,
	end_lat DOUBLE PRECISION,
	end_lng DOUBLE PRECISION,
	summary_polyline TEXT,
	splits JSONB NOT NULL DEFAULT '[]',
	weather JSONB NOT NULL DEFAULT 'null',
	raw_data JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_activities_user_start ON activities (user_id, start_date DESC);
CREATE UNIQUE INDEX IF NOT EXISTS idx_activities_user_source_external
	ON activities (user_id, source, external_id) WHERE external_id IS NOT NULL;
`,
		Down: `DROP TABLE IF EXISTS activities;`,
	},
	{
		Timestamp: 20260105090200,
		Name:      "create_auth_tokens",
		Up:        `
CREATE TABLE IF NOT EXISTS auth_tokens (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	provider VARCHAR(20) NOT NULL,
	provider_user_id VARCHAR(64) NOT NULL,
	access_token TEXT NOT NULL,
	refresh_token TEXT NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	scope VARCHAR(255) NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	provider_data JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_auth_tokens_user_provider ON auth_tokens (user_id, provider);
CREATE INDEX IF NOT EXISTS idx_auth_tokens_provider_user ON auth_tokens (provider, provider_user_id);
`,
		Down: `DROP TABLE IF EXISTS auth_tokens;`,
	},
	{
		Timestamp: 20260105090300,
		Name:      "create_analytics_events",
		Up:        `
CREATE TABLE IF NOT EXISTS analytics_events (
	id UUID PRIMARY KEY,
	user_id UUID REFERENCES users(id) ON DELETE SET NULL,
	event_name VARCHAR(100) NOT NULL,
	properties JSONB,
	session_id VARCHAR(64),
	ip_address VARCHAR(45),
	user_agent TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_analytics_events_user ON analytics_events (user_id);
CREATE INDEX IF NOT EXISTS idx_analytics_events_name ON analytics_events (event_name);
CREATE INDEX IF NOT EXISTS idx_analytics_events_created ON analytics_events (created_at);
`,
		Down: `DROP TABLE IF EXISTS analytics_events;`,
	},
}
