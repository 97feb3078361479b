// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/aeropacer/internal/models"
)

type trackedEvent struct {
	userID uuid.UUID
	name   string
	props  map[string]interface{}
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []trackedEvent
}

func (f *fakeRecorder) TrackInternal(_ context.Context, userID uuid.UUID, name string, props map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, trackedEvent{userID, name, props})
}

func (f *fakeRecorder) snapshot() []trackedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]trackedEvent(nil), f.events...)
}

type fakeNotifier struct {
	mu    sync.Mutex
	types []string
}

func (f *fakeNotifier) SendToUser(_ uuid.UUID, messageType string, _ interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types = append(f.types, messageType)
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.types)
}

type fakeCache struct {
	mu    sync.Mutex
	users []uuid.UUID
}

func (f *fakeCache) InvalidateUser(userID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, userID)
}

func (f *fakeCache) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRegister_RoutesEventsToConsumers(t *testing.T) {
	b := newMemoryBus(t)
	recorder := &fakeRecorder{}
	notifier := &fakeNotifier{}
	cache := &fakeCache{}

	if err := Register(b, Consumers{Recorder: recorder, Notifier: notifier, Cache: cache}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	startBus(t, b)

	userID := uuid.New()
	ctx := context.Background()
	if err := b.Publish(ctx, TopicActivitiesSynced, userID, ActivitiesSynced{Fetched: 3, Created: 2}); err != nil {
		t.Fatalf("Publish(synced) error = %v", err)
	}
	if err := b.Publish(ctx, TopicActivityChanged, userID, ActivityChanged{ActivityID: uuid.New(), Action: ActionDeleted}); err != nil {
		t.Fatalf("Publish(changed) error = %v", err)
	}

	waitFor(t, "cache invalidations", func() bool { return cache.count() == 2 })
	waitFor(t, "notifications", func() bool { return notifier.count() == 2 })
	waitFor(t, "analytics event", func() bool { return len(recorder.snapshot()) == 1 })

	notifier.mu.Lock()
	types := append([]string(nil), notifier.types...)
	notifier.mu.Unlock()
	if !containsString(types, MessageSyncCompleted) || !containsString(types, MessageActivityChanged) {
		t.Errorf("message types = %v, want sync_completed and activity_changed", types)
	}

	ev := recorder.snapshot()[0]
	if ev.name != models.EventStravaSynced {
		t.Errorf("event name = %q, want %q", ev.name, models.EventStravaSynced)
	}
	if ev.userID != userID {
		t.Errorf("event user = %v, want %v", ev.userID, userID)
	}
	if created, _ := ev.props["created"].(float64); created != 2 {
		t.Errorf("props[created] = %v, want 2", ev.props["created"])
	}
}

func TestRegister_NilConsumersSkipped(t *testing.T) {
	b := newMemoryBus(t)
	if err := Register(b, Consumers{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_ = b.Close()
}

func TestAnalyticsName(t *testing.T) {
	tests := []struct {
		topic   string
		want    string
		wantErr bool
	}{
		{TopicActivitiesSynced, models.EventStravaSynced, false},
		{TopicStravaConnected, models.EventStravaConnected, false},
		{TopicStravaDisconnected, models.EventStravaDisconnect, false},
		{TopicActivityChanged, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			got, err := analyticsName(tt.topic)
			if (err != nil) != tt.wantErr {
				t.Fatalf("analyticsName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("analyticsName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestMessageType(t *testing.T) {
	tests := map[string]string{
		TopicActivitiesSynced:   "sync_completed",
		TopicActivityChanged:    "activity_changed",
		TopicStravaConnected:    "strava_connected",
		TopicStravaDisconnected: "strava_disconnected",
		"other.topic":           "other.topic",
	}
	for topic, want := range tests {
		if got := MessageType(topic); got != want {
			t.Errorf("MessageType(%q) = %q, want %q", topic, got, want)
		}
	}
}
