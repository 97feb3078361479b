// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Well-known analytics event names produced by the backend itself.
const (
	EventUserRegistered   = "user_registered"
	EventUserLoggedIn     = "user_logged_in"
	EventStravaConnected  = "strava_connected"
	EventStravaSynced     = "strava_sync_completed"
	EventStravaDisconnect = "strava_disconnected"
	EventActivityCreated  = "activity_created"
	EventActivityUpdated  = "activity_updated"
	EventActivityDeleted  = "activity_deleted"
)

// AnalyticsEvent is a single product analytics event. UserID becomes NULL
// when the user is deleted.
type AnalyticsEvent struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID        `gorm:"type:uuid;index" json:"user_id,omitempty"`
	EventName  string            `gorm:"size:100;not null;index" json:"event_name"`
	Properties datatypes.JSONMap `gorm:"type:jsonb" json:"properties"`
	SessionID  *string           `gorm:"size:64" json:"session_id,omitempty"`
	IPAddress  *string           `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent  *string           `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}

// TableName pins the table name independent of gorm naming strategy.
func (AnalyticsEvent) TableName() string { return "analytics_events" }

// EventFilter narrows analytics event listings.
type EventFilter struct {
	UserID    *uuid.UUID
	EventName string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// EventCount is a per-name aggregate used by the analytics summary.
type EventCount struct {
	EventName   string `json:"event_name"`
	Count       int64  `json:"count"`
	UniqueUsers int64  `json:"unique_users"`
}
