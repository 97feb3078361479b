// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Topics.
const (
	TopicActivitiesSynced   = "activities.synced"
	TopicActivityChanged    = "activities.changed"
	TopicStravaConnected    = "strava.connected"
	TopicStravaDisconnected = "strava.disconnected"
)

// Envelope wraps every payload on the bus.
type Envelope struct {
	ID         string          `json:"id"`
	Topic      string          `json:"topic"`
	UserID     uuid.UUID       `json:"user_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	RequestID  string          `json:"request_id,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// NewEnvelope marshals data into an envelope for topic.
func NewEnvelope(topic string, userID uuid.UUID, data interface{}) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	return &Envelope{
		ID:         uuid.NewString(),
		Topic:      topic,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}, nil
}

// Decode unmarshals the payload into v.
func (e *Envelope) Decode(v interface{}) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Topic, err)
	}
	return nil
}

// ActivitiesSynced is published after a Strava sync finishes.
type ActivitiesSynced struct {
	Fetched    int       `json:"fetched"`
	Created    int       `json:"created"`
	Skipped    int       `json:"skipped"`
	Pages      int       `json:"pages"`
	Full       bool      `json:"full"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	// Partial is set when the sync failed after some pages were stored.
	Partial bool   `json:"partial,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Activity change actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ActivityChanged is published when a user edits activities directly.
type ActivityChanged struct {
	ActivityID uuid.UUID `json:"activity_id"`
	Action     string    `json:"action"`
}

// StravaConnected is published after a successful OAuth callback.
type StravaConnected struct {
	AthleteID int64  `json:"athlete_id"`
	Scope     string `json:"scope"`
}

// Disconnect reasons.
const (
	ReasonUser          = "user"
	ReasonDeauthorized  = "deauthorized"
	ReasonRefreshFailed = "refresh_failed"
	ReasonAccountDelete = "account_deleted"
)

// StravaDisconnected is published when a Strava link is removed.
type StravaDisconnected struct {
	Reason string `json:"reason"`
}
