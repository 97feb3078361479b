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
	"gorm.io/gorm/clause"

	"github.com/tomtom215/aeropacer/internal/models"
)

const (
	tableActivities = "activities"

	// insertBatchSize caps rows per INSERT in CreateBatch.
	insertBatchSize = 100

	// fastestPaceMinKm is the shortest run eligible for the fastest-pace record.
	fastestPaceMinKm = 1.0
)

// runTypes are activity types counted as runs for personal bests.
var runTypes = []string{models.TypeRun, models.TypeTrailRun, models.TypeVirtualRun}

// updatableActivityColumns are the columns Update may change.
var updatableActivityColumns = []string{
	"name", "type", "start_date", "distance_km", "moving_time_sec", "elapsed_time_sec",
	"average_pace_sec_per_km", "average_speed_kmh", "max_speed_kmh", "elevation_gain_m",
	"average_heart_rate", "max_heart_rate", "average_cadence", "calories",
	"start_lat", "start_lng", "end_lat", "end_lng", "summary_polyline", "splits", "weather",
	"updated_at",
}

// ActivityRepository persists activities.
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates an ActivityRepository.
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func prepareActivity(a *models.Activity) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Source == "" {
		a.Source = models.SourceManual
	}
	a.StartDate = a.StartDate.UTC()
}

// Create inserts one activity.
func (r *ActivityRepository) Create(ctx context.Context, a *models.Activity) (err error) {
	defer func(start time.Time) { observe("create", tableActivities, start, err) }(time.Now())

	prepareActivity(a)
	gdb, cancel := r.db.session(ctx)
	defer cancel()
	if err = mapError(gdb.Create(a).Error); err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

// CreateBatch inserts activities, silently skipping rows that collide on
// (user_id, source, external_id). It returns the number of rows inserted.
func (r *ActivityRepository) CreateBatch(ctx context.Context, activities []*models.Activity) (_ int64, err error) {
	defer func(start time.Time) { observe("create_batch", tableActivities, start, err) }(time.Now())

	if len(activities) == 0 {
		return 0, nil
	}
	for _, a := range activities {
		prepareActivity(a)
	}

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	res := gdb.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(activities, insertBatchSize)
	if err = mapError(res.Error); err != nil {
		return 0, fmt.Errorf("create activities: %w", err)
	}
	return res.RowsAffected, nil
}

// GetByID returns one of the user's activities.
func (r *ActivityRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (_ *models.Activity, err error) {
	defer func(start time.Time) { observe("get", tableActivities, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	var a models.Activity
	if err = mapError(gdb.First(&a, "id = ? AND user_id = ?", id, userID).Error); err != nil {
		return nil, err
	}
	return &a, nil
}

// Update writes the editable columns of a, scoped to its owner.
func (r *ActivityRepository) Update(ctx context.Context, a *models.Activity) (err error) {
	defer func(start time.Time) { observe("update", tableActivities, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	res := gdb.Model(a).Where("user_id = ?", a.UserID).Select(updatableActivityColumns).Updates(a)
	if err = mapError(res.Error); err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	if res.RowsAffected == 0 {
		err = ErrNotFound
	}
	return err
}

// Delete removes one of the user's activities.
func (r *ActivityRepository) Delete(ctx context.Context, userID, id uuid.UUID) (err error) {
	defer func(start time.Time) { observe("delete", tableActivities, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	res := gdb.Delete(&models.Activity{}, "id = ? AND user_id = ?", id, userID)
	if err = mapError(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		err = ErrNotFound
	}
	return err
}

// applyActivityFilter adds the WHERE clauses shared by List and its count.
func applyActivityFilter(q *gorm.DB, f models.ActivityFilter) *gorm.DB {
	q = q.Where("user_id = ?", f.UserID)
	if f.From != nil {
		q = q.Where("start_date >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("start_date < ?", f.To.UTC())
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Source != "" {
		q = q.Where("source = ?", f.Source)
	}
	return q
}

// List returns a page of activities, newest first, plus the total match count.
func (r *ActivityRepository) List(ctx context.Context, f models.ActivityFilter) (_ []models.Activity, _ int64, err error) {
	defer func(start time.Time) { observe("list", tableActivities, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	var total int64
	if err = applyActivityFilter(gdb.Model(&models.Activity{}), f).Count(&total).Error; err != nil {
		return nil, 0, mapError(err)
	}

	activities := make([]models.Activity, 0, f.Limit)
	if total > 0 {
		err = applyActivityFilter(gdb.Model(&models.Activity{}), f).
			Omit("raw_data").
			Order("start_date DESC, id").
			Limit(f.Limit).
			Offset(f.Offset).
			Find(&activities).Error
		if err != nil {
			return nil, 0, mapError(err)
		}
	}
	return activities, total, nil
}

// ListInRange returns the user's activities with from <= start_date < to, oldest first.
func (r *ActivityRepository) ListInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) (_ []models.Activity, err error) {
	defer func(start time.Time) { observe("list_range", tableActivities, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	var activities []models.Activity
	err = gdb.Omit("raw_data").
		Where("user_id = ? AND start_date >= ? AND start_date < ?", userID, from.UTC(), to.UTC()).
		Order("start_date").
		Find(&activities).Error
	return activities, mapError(err)
}

// Totals aggregates the user's activities in an optional [from, to) window.
func (r *ActivityRepository) Totals(ctx context.Context, userID uuid.UUID, from, to *time.Time) (_ models.SummaryTotals, err error) {
	defer func(start time.Time) { observe("totals", tableActivities, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	var totals models.SummaryTotals
	err = applyActivityFilter(gdb.Model(&models.Activity{}), models.ActivityFilter{UserID: userID, From: from, To: to}).
		Select(`COUNT(*) AS count,
			COALESCE(SUM(distance_km), 0) AS total_distance_km,
			COALESCE(SUM(moving_time_sec), 0) AS total_moving_time_sec,
			COALESCE(SUM(elevation_gain_m), 0) AS total_elevation_gain_m`).
		Scan(&totals).Error
	return totals, mapError(err)
}

// PersonalBests returns the user's longest run and fastest-paced run of at least 1 km.
func (r *ActivityRepository) PersonalBests(ctx context.Context, userID uuid.UUID) (_ models.PersonalBests, err error) {
	defer func(start time.Time) { observe("personal_bests", tableActivities, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	var pbs models.PersonalBests
	runs := func() *gorm.DB {
		return gdb.Model(&models.Activity{}).
			Select("id", "name", "start_date", "distance_km", "average_pace_sec_per_km").
			Where("user_id = ? AND type IN ?", userID, runTypes)
	}

	var longest []models.Activity
	if err = runs().Order("distance_km DESC, start_date").Limit(1).Find(&longest).Error; err != nil {
		return pbs, mapError(err)
	}
	if len(longest) == 1 {
		pbs.LongestRun = activityRef(&longest[0])
	}

	var fastest []models.Activity
	err = runs().
		Where("distance_km >= ? AND average_pace_sec_per_km IS NOT NULL", fastestPaceMinKm).
		Order("average_pace_sec_per_km, start_date").
		Limit(1).
		Find(&fastest).Error
	if err != nil {
		return pbs, mapError(err)
	}
	if len(fastest) == 1 {
		pbs.FastestPace = activityRef(&fastest[0])
	}
	return pbs, nil
}

func activityRef(a *models.Activity) *models.ActivityRef {
	return &models.ActivityRef{
		ActivityID:   a.ID,
		Name:         a.Name,
		StartDate:    a.StartDate,
		DistanceKm:   a.DistanceKm,
		PaceSecPerKm: a.AveragePaceSecPerKm,
	}
}

// StartDatesSince returns start dates of the user's activities at or after since,
// newest first.
func (r *ActivityRepository) StartDatesSince(ctx context.Context, userID uuid.UUID, since time.Time) (_ []time.Time, err error) {
	defer func(start time.Time) { observe("start_dates", tableActivities, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	var dates []time.Time
	err = gdb.Model(&models.Activity{}).
		Where("user_id = ? AND start_date >= ?", userID, since.UTC()).
		Order("start_date DESC").
		Pluck("start_date", &dates).Error
	return dates, mapError(err)
}

// LatestStartDate returns the newest start_date for the user and source, or nil.
func (r *ActivityRepository) LatestStartDate(ctx context.Context, userID uuid.UUID, source string) (_ *time.Time, err error) {
	defer func(start time.Time) { observe("latest_start", tableActivities, start, err) }(time.Now())

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	var latest []time.Time
	err = gdb.Model(&models.Activity{}).
		Where("user_id = ? AND source = ?", userID, source).
		Order("start_date DESC").
		Limit(1).
		Pluck("start_date", &latest).Error
	if err != nil {
		return nil, mapError(err)
	}
	if len(latest) == 0 {
		return nil, nil
	}
	return &latest[0], nil
}

// ExistingExternalIDs returns which of ids are already stored for the user and source.
func (r *ActivityRepository) ExistingExternalIDs(ctx context.Context, userID uuid.UUID, source string, ids []string) (_ map[string]struct{}, err error) {
	defer func(start time.Time) { observe("existing_external_ids", tableActivities, start, err) }(time.Now())

	existing := make(map[string]struct{})
	if len(ids) == 0 {
		return existing, nil
	}

	gdb, cancel := r.db.session(ctx)
	defer cancel()

	var found []string
	err = gdb.Model(&models.Activity{}).
		Where("user_id = ? AND source = ? AND external_id IN ?", userID, source, ids).
		Pluck("external_id", &found).Error
	if err != nil {
		return nil, mapError(err)
	}
	for _, id := range found {
		existing[id] = struct{}{}
	}
	return existing, nil
}
