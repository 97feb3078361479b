// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package strava

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrNotConnected is returned when the user has no active Strava token.
	ErrNotConnected = errors.New("strava account not connected")

	// ErrInvalidState is returned for an unknown, expired or reused OAuth state.
	ErrInvalidState = errors.New("invalid or expired oauth state")

	// ErrAuthorizationDenied is returned when the athlete declined access or
	// the callback carried no code.
	ErrAuthorizationDenied = errors.New("strava authorization denied")

	// ErrSyncInProgress is returned when a sync for the same user is running.
	ErrSyncInProgress = errors.New("strava sync already in progress")

	// ErrWebhookVerification is returned when a subscription challenge fails.
	ErrWebhookVerification = errors.New("strava webhook verification failed")
)

// APIError is a non-2xx response from Strava.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("strava %s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// Temporary reports whether retrying later may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// isTransient reports whether a failed call may succeed when retried later.
// Errors that never got an HTTP answer count as transient.
func isTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// IsClientError reports whether err is a 4xx answer other than 429.
func IsClientError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests
}

// TokenResponse is the body of POST /oauth/token.
type TokenResponse struct {
	TokenType    string   `json:"token_type"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresAt    int64    `json:"expires_at"`
	ExpiresIn    int      `json:"expires_in"`
	Athlete      *Athlete `json:"athlete,omitempty"`
}

// Expiry returns ExpiresAt as a time.
func (t *TokenResponse) Expiry() time.Time {
	return time.Unix(t.ExpiresAt, 0).UTC()
}

// Athlete is the summary athlete returned with tokens and by GET /athlete.
type Athlete struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
	Sex       string `json:"sex"`
	Profile   string `json:"profile"`
}

// providerData is what gets stored on the token row.
func (a *Athlete) providerData() map[string]interface{} {
	return map[string]interface{}{
		"athlete_id": a.ID,
		"username":   a.Username,
		"firstname":  a.Firstname,
		"lastname":   a.Lastname,
		"city":       a.City,
		"country":    a.Country,
	}
}

// ActivityMap carries the encoded route.
type ActivityMap struct {
	ID              string `json:"id"`
	SummaryPolyline string `json:"summary_polyline"`
}

// SummaryActivity is one element of GET /athlete/activities. Units are
// Strava's: metres, seconds, metres per second, and half-cadence for runs.
type SummaryActivity struct {
	ID                 int64       `json:"id"`
	Name               string      `json:"name"`
	Type               string      `json:"type"`
	SportType          string      `json:"sport_type"`
	StartDate          time.Time   `json:"start_date"`
	Timezone           string      `json:"timezone"`
	Distance           float64     `json:"distance"`
	MovingTime         int         `json:"moving_time"`
	ElapsedTime        int         `json:"elapsed_time"`
	TotalElevationGain float64     `json:"total_elevation_gain"`
	AverageSpeed       float64     `json:"average_speed"`
	MaxSpeed           float64     `json:"max_speed"`
	HasHeartrate       bool        `json:"has_heartrate"`
	AverageHeartrate   *float64    `json:"average_heartrate"`
	MaxHeartrate       *float64    `json:"max_heartrate"`
	AverageCadence     *float64    `json:"average_cadence"`
	Kilojoules         *float64    `json:"kilojoules"`
	Calories           *float64    `json:"calories"`
	StartLatlng        []float64   `json:"start_latlng"`
	EndLatlng          []float64   `json:"end_latlng"`
	Map                ActivityMap `json:"map"`

	// Raw is the undecoded payload, kept on the stored activity.
	Raw map[string]interface{} `json:"-"`
}

// Sport returns sport_type, falling back to the legacy type field.
func (a *SummaryActivity) Sport() string {
	if a.SportType != "" {
		return a.SportType
	}
	return a.Type
}

// ListOptions filters GET /athlete/activities.
type ListOptions struct {
	After   time.Time
	Before  time.Time
	Page    int
	PerPage int
}

// WebhookEvent is a push subscription event.
type WebhookEvent struct {
	ObjectType     string                 `json:"object_type"`
	ObjectID       int64                  `json:"object_id"`
	AspectType     string                 `json:"aspect_type"`
	OwnerID        int64                  `json:"owner_id"`
	SubscriptionID int64                  `json:"subscription_id"`
	EventTime      int64                  `json:"event_time"`
	Updates        map[string]interface{} `json:"updates"`
}

// Deauthorized reports whether the event revokes the athlete's authorization.
func (e *WebhookEvent) Deauthorized() bool {
	if e.ObjectType != "athlete" {
		return false
	}
	switch v := e.Updates["authorized"].(type) {
	case string:
		return v == "false"
	case bool:
		return !v
	}
	return false
}
