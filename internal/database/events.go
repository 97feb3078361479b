// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tomtom215/aeropacer/internal/models"
)

const tableAnalyticsEvents = "analytics_events"

// EventRepository persists analytics events.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates an EventRepository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

func prepareEvent(e *models.AnalyticsEvent) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
}

// Create inserts one event.
func (r *EventRepository) Create(ctx context.Context, e *models.AnalyticsEvent) (err error) {
	defer func(start time.Time) { observe("create", tableAnalyticsEvents, start, err) }(time.Now())

	prepareEvent(e)
	gdb, cancel := r.db.session(ctx)
	defer cancel()
	if err = mapError(gdb.Create(e).Error); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// CreateBatch inserts events in one statement.
func (r *EventRepository) CreateBatch(ctx context.Context, events []*models.AnalyticsEvent) (err error) {
	defer func(start time.Time) { observe("create_batch", tableAnalyticsEvents, start, err) }(time.Now())

	if len(events) == 0 {
		return nil
	}
	for _, e := range events {
		prepareEvent(e)
	}
	gdb, cancel := r.db.session(ctx)
	defer cancel()
	if err = mapError(gdb.Create(events).Error); err != nil {
		return fmt.Errorf("create events: %w", err)
	}
	return nil
}

func applyEventWindow(q *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		q = q.Where("created_at >= ?", from.UTC())
	}
	if to != nil {
		q = q.Where("created_at < ?", to.UTC())
	}
	return q
}

func applyEventFilter(q *gorm.DB, f models.EventFilter) *gorm.DB {
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.EventName != "" {
		q = q.Where("event_name = ?", f.EventName)
	}
	return applyEventWindow(q, f.From, f.To)
}

// List returns a page of events, newest first, plus the total match count.
func (r *EventRepository) List(ctx context.Context, f models.EventFilter) (_ []models.AnalyticsEvent, _ int64, err error) {
	defer func(start time.Time) { observe("list", tableAnalyticsEvents, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	var total int64
	if err = applyEventFilter(gdb.Model(&models.AnalyticsEvent{}), f).Count(&total).Error; err != nil {
		return nil, 0, mapError(err)
	}

	events := make([]models.AnalyticsEvent, 0, f.Limit)
	if total > 0 {
		err = applyEventFilter(gdb.Model(&models.AnalyticsEvent{}), f).
			Order("created_at DESC, id").
			Limit(f.Limit).
			Offset(f.Offset).
			Find(&events).Error
		if err != nil {
			return nil, 0, mapError(err)
		}
	}
	return events, total, nil
}

// CountByName returns per-event counts and distinct users in [from, to), most frequent first.
func (r *EventRepository) CountByName(ctx context.Context, from, to *time.Time) (_ []models.EventCount, err error) {
	defer func(start time.Time) { observe("count_by_name", tableAnalyticsEvents, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	var counts []models.EventCount
	err = applyEventWindow(gdb.Model(&models.AnalyticsEvent{}), from, to).
		Select("event_name, COUNT(*) AS count, COUNT(DISTINCT user_id) AS unique_users").
		Group("event_name").
		Order("count DESC, event_name").
		Scan(&counts).Error
	return counts, mapError(err)
}

// DistinctUsers counts users with at least one event in [from, to).
func (r *EventRepository) DistinctUsers(ctx context.Context, from, to *time.Time) (_ int64, err error) {
	defer func(start time.Time) { observe("distinct_users", tableAnalyticsEvents, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	var n int64
	err = applyEventWindow(gdb.Model(&models.AnalyticsEvent{}), from, to).
		Select("COUNT(DISTINCT user_id)").
		Scan(&n).Error
	return n, mapError(err)
}
