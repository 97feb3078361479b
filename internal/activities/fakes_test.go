// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package activities

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tomtom215/aeropacer/internal/config"
	"github.com/tomtom215/aeropacer/internal/database"
	"github.com/tomtom215/aeropacer/internal/models"
)

type fakeStore struct {
	mu         sync.Mutex
	items      map[uuid.UUID]models.Activity
	rangeCalls int
	totalCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[uuid.UUID]models.Activity)}
}

func (f *fakeStore) add(a models.Activity) models.Activity {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.StartDate = a.StartDate.UTC()
	f.items[a.ID] = a
	return a
}

func (f *fakeStore) Create(_ context.Context, a *models.Activity) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.add(*a)
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, userID, id uuid.UUID) (*models.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok || a.UserID != userID {
		return nil, database.ErrNotFound
	}
	return &a, nil
}

func (f *fakeStore) Update(_ context.Context, a *models.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.items[a.ID]
	if !ok || cur.UserID != a.UserID {
		return database.ErrNotFound
	}
	f.items[a.ID] = *a
	return nil
}

func (f *fakeStore) Delete(_ context.Context, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok || a.UserID != userID {
		return database.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

// sorted returns the user's activities matching keep, newest first.
func (f *fakeStore) sorted(userID uuid.UUID, keep func(models.Activity) bool) []models.Activity {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Activity
	for _, a := range f.items {
		if a.UserID == userID && keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out
}

func inWindow(a models.Activity, from, to *time.Time) bool {
	if from != nil && a.StartDate.Before(*from) {
		return false
	}
	if to != nil && !a.StartDate.Before(*to) {
		return false
	}
	return true
}

func (f *fakeStore) List(_ context.Context, flt models.ActivityFilter) ([]models.Activity, int64, error) {
	all := f.sorted(flt.UserID, func(a models.Activity) bool {
		return inWindow(a, flt.From, flt.To) &&
			(flt.Type == "" || a.Type == flt.Type) &&
			(flt.Source == "" || a.Source == flt.Source)
	})
	total := int64(len(all))
	if flt.Offset >= len(all) {
		return []models.Activity{}, total, nil
	}
	all = all[flt.Offset:]
	if len(all) > flt.Limit {
		all = all[:flt.Limit]
	}
	return all, total, nil
}

func (f *fakeStore) ListInRange(_ context.Context, userID uuid.UUID, from, to time.Time) ([]models.Activity, error) {
	f.mu.Lock()
	f.rangeCalls++
	f.mu.Unlock()
	out := f.sorted(userID, func(a models.Activity) bool { return inWindow(a, &from, &to) })
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (f *fakeStore) Totals(_ context.Context, userID uuid.UUID, from, to *time.Time) (models.SummaryTotals, error) {
	f.mu.Lock()
	f.totalCalls++
	f.mu.Unlock()
	var t models.SummaryTotals
	for _, a := range f.sorted(userID, func(a models.Activity) bool { return inWindow(a, from, to) }) {
		t.Count++
		t.TotalDistanceKm += a.DistanceKm
		t.TotalMovingTimeSec += a.MovingTimeSec
		if a.ElevationGainM != nil {
			t.TotalElevationGainM += *a.ElevationGainM
		}
	}
	return t, nil
}

func (f *fakeStore) PersonalBests(_ context.Context, userID uuid.UUID) (models.PersonalBests, error) {
	var pbs models.PersonalBests
	for _, a := range f.sorted(userID, func(a models.Activity) bool { return a.IsRun() }) {
		ref := &models.ActivityRef{ActivityID: a.ID, Name: a.Name, StartDate: a.StartDate, DistanceKm: a.DistanceKm, PaceSecPerKm: a.AveragePaceSecPerKm}
		if pbs.LongestRun == nil || a.DistanceKm > pbs.LongestRun.DistanceKm {
			pbs.LongestRun = ref
		}
		if a.DistanceKm >= 1 && a.AveragePaceSecPerKm != nil &&
			(pbs.FastestPace == nil || *a.AveragePaceSecPerKm < *pbs.FastestPace.PaceSecPerKm) {
			pbs.FastestPace = ref
		}
	}
	return pbs, nil
}

func (f *fakeStore) StartDatesSince(_ context.Context, userID uuid.UUID, since time.Time) ([]time.Time, error) {
	var dates []time.Time
	for _, a := range f.sorted(userID, func(a models.Activity) bool { return !a.StartDate.Before(since) }) {
		dates = append(dates, a.StartDate)
	}
	return dates, nil
}

type fakeUsers struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type published struct {
	topic  string
	userID uuid.UUID
	data   interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
}

func (f *fakePublisher) Publish(_ context.Context, topic string, userID uuid.UUID, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{topic, userID, data})
	return nil
}

type fakeTracker struct {
	mu    sync.Mutex
	names []string
}

func (f *fakeTracker) TrackInternal(_ context.Context, _ uuid.UUID, name string, _ map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, name)
}

// fixedNow is Wednesday 2026-03-18 10:00 UTC.
var fixedNow = time.Date(2026, 3, 18, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *Service
	store     *fakeStore
	publisher *fakePublisher
	tracker   *fakeTracker
	userID    uuid.UUID
}

func newFixture(t *testing.T, tz string) *fixture {
	t.Helper()
	userID := uuid.New()
	prefs := models.DefaultPreferences()
	prefs.Timezone = tz
	prefs.WeeklyGoalKm = 40

	users := &fakeUsers{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, Preferences: datatypes.NewJSONType(prefs), IsActive: true},
	}}

	cfg := &config.Config{API: config.APIConfig{DefaultPageSize: 20, MaxPageSize: 200}}
	statsCache := NewStatsCache(time.Minute)
	t.Cleanup(statsCache.Close)

	f := &fixture{
		store:     newFakeStore(),
		publisher: &fakePublisher{},
		tracker:   &fakeTracker{},
		userID:    userID,
	}
	f.svc = NewService(cfg, f.store, users, f.publisher, f.tracker, statsCache)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func run(userID uuid.UUID, start time.Time, km float64, sec int) models.Activity {
	a := models.Activity{
		UserID:         userID,
		Source:         models.SourceManual,
		Name:           "Run",
		Type:           models.TypeRun,
		StartDate:      start,
		DistanceKm:     km,
		MovingTimeSec:  sec,
		ElapsedTimeSec: sec,
	}
	a.DerivePace()
	return a
}

func ptr[T any](v T) *T { return &v }
