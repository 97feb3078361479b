// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tomtom215/aeropacer/internal/models"
)

// Recorder stores server-side analytics events.
type Recorder interface {
	TrackInternal(ctx context.Context, userID uuid.UUID, eventName string, properties map[string]interface{})
}

// Notifier pushes a message to a user's live connections.
type Notifier interface {
	SendToUser(userID uuid.UUID, messageType string, data interface{})
}

// CacheInvalidator drops cached aggregates for a user.
type CacheInvalidator interface {
	InvalidateUser(userID uuid.UUID)
}

// Consumers are the handlers wired onto the bus. Nil members are skipped.
type Consumers struct {
	Recorder Recorder
	Notifier Notifier
	Cache    CacheInvalidator
}

var allTopics = []string{
	TopicActivitiesSynced,
	TopicActivityChanged,
	TopicStravaConnected,
	TopicStravaDisconnected,
}

// Register subscribes the consumers to every topic they care about.
func Register(bus *Bus, c Consumers) error {
	for _, topic := range allTopics {
		if c.Recorder != nil && topic != TopicActivityChanged {
			if err := bus.Subscribe("analytics-"+topic, topic, false, recordAnalytics(c.Recorder)); err != nil {
				return err
			}
		}
		if c.Notifier != nil {
			// Every instance must see the event to reach sockets connected to it.
			if err := bus.Subscribe("websocket-"+topic, topic, true, notifyUser(c.Notifier)); err != nil {
				return err
			}
		}
	}

	if c.Cache != nil {
		for _, topic := range []string{TopicActivitiesSynced, TopicActivityChanged} {
			if err := bus.Subscribe("stats-cache-"+topic, topic, true, invalidateCache(c.Cache)); err != nil {
				return err
			}
		}
	}
	return nil
}

func recordAnalytics(r Recorder) HandlerFunc {
	return func(ctx context.Context, env *Envelope) error {
		var props map[string]interface{}
		if err := env.Decode(&props); err != nil {
			return nil //nolint:nilerr // malformed payloads are not retried
		}

		name, err := analyticsName(env.Topic)
		if err != nil {
			return nil //nolint:nilerr // unknown topics are ignored
		}
		r.TrackInternal(ctx, env.UserID, name, props)
		return nil
	}
}

func analyticsName(topic string) (string, error) {
	switch topic {
	case TopicActivitiesSynced:
		return models.EventStravaSynced, nil
	case TopicStravaConnected:
		return models.EventStravaConnected, nil
	case TopicStravaDisconnected:
		return models.EventStravaDisconnect, nil
	}
	return "", fmt.Errorf("no analytics event for topic %s", topic)
}

// WebSocket message types pushed to clients.
const (
	MessageSyncCompleted      = "sync_completed"
	MessageActivityChanged    = "activity_changed"
	MessageStravaConnected    = "strava_connected"
	MessageStravaDisconnected = "strava_disconnected"
)

// MessageType maps a topic to the WebSocket message type clients receive.
func MessageType(topic string) string {
	switch topic {
	case TopicActivitiesSynced:
		return MessageSyncCompleted
	case TopicActivityChanged:
		return MessageActivityChanged
	case TopicStravaConnected:
		return MessageStravaConnected
	case TopicStravaDisconnected:
		return MessageStravaDisconnected
	}
	return topic
}

// notifyUser forwards the payload as a WebSocket message.
func notifyUser(n Notifier) HandlerFunc {
	return func(_ context.Context, env *Envelope) error {
		n.SendToUser(env.UserID, MessageType(env.Topic), env.Data)
		return nil
	}
}

func invalidateCache(c CacheInvalidator) HandlerFunc {
	return func(_ context.Context, env *Envelope) error {
		c.InvalidateUser(env.UserID)
		return nil
	}
}
