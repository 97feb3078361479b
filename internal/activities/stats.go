// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package activities

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/aeropacer/internal/database"
	"github.com/tomtom215/aeropacer/internal/models"
	"github.com/tomtom215/aeropacer/internal/users"
	"github.com/tomtom215/aeropacer/internal/validation"
)

const (
	defaultWeekBuckets  = 12
	defaultMonthBuckets = 12

	// maxStatsBuckets caps a single rollup at roughly ten years of weeks.
	maxStatsBuckets = 520
)

// StatsInput selects the rollup period and window. To is inclusive: the
// bucket containing it is the last one returned.
type StatsInput struct {
	Period string     `json:"period" validate:"omitempty,oneof=week month"`
	From   *time.Time `json:"from"`
	To     *time.Time `json:"to"`
}

// Stats rolls the user's activities up into week or month buckets in the
// user's time zone.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID, in StatsInput) (*models.StatsResponse, error) {
	if verr := validation.ValidateStruct(&in); verr != nil {
		return nil, verr
	}
	if in.Period == "" {
		in.Period = models.PeriodWeek
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	loc := user.Location()

	start, end, err := statsWindow(in, s.now(), loc)
	if err != nil {
		return nil, err
	}

	key := statsKey(userID, in.Period, start, end, loc.String())
	if cached, ok := s.cache.getStats(key); ok {
		return cached, nil
	}

	items, err := s.store.ListInRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load activities for stats: %w", err)
	}

	resp := Rollup(items, in.Period, start, end, loc)
	s.cache.set(key, resp)
	return resp, nil
}

// statsWindow resolves the aligned [start, end) range for a request.
func statsWindow(in StatsInput, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	to := now
	if in.To != nil {
		to = *in.To
	}

	var from time.Time
	switch {
	case in.From != nil:
		from = *in.From
	case in.Period == models.PeriodMonth:
		from = PeriodStart(to, models.PeriodMonth, loc).AddDate(0, -(defaultMonthBuckets - 1), 0)
	default:
		from = PeriodStart(to, models.PeriodWeek, loc).AddDate(0, 0, -7*(defaultWeekBuckets-1))
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, validation.NewError("from", "ltefield", "from must not be after to")
	}

	start := PeriodStart(from, in.Period, loc)
	end := NextPeriod(PeriodStart(to, in.Period, loc), in.Period)

	n := 0
	for t := start; t.Before(end); t = NextPeriod(t, in.Period) {
		n++
		if n > maxStatsBuckets {
			return time.Time{}, time.Time{}, validation.NewError("from", "max",
				fmt.Sprintf("range must not exceed %d %ss", maxStatsBuckets, in.Period))
		}
	}
	return start, end, nil
}

// PeriodStart returns the start of the week (Monday 00:00) or month (1st
// 00:00) containing t, in loc.
func PeriodStart(t time.Time, period string, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	if period == models.PeriodMonth {
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	}
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
}

// NextPeriod returns the start of the period after the one starting at start.
func NextPeriod(start time.Time, period string) time.Time {
	if period == models.PeriodMonth {
		return start.AddDate(0, 1, 0)
	}
	return start.AddDate(0, 0, 7)
}

// bucketAccumulator sums one bucket before averages are taken.
type bucketAccumulator struct {
	bucket   models.StatsBucket
	hrSum    float64
	hrCount  int
	paceDist float64
	paceTime int
}

func (b *bucketAccumulator) add(a *models.Activity) {
	b.bucket.Count++
	b.bucket.TotalDistanceKm += a.DistanceKm
	b.bucket.TotalMovingTimeSec += a.MovingTimeSec
	if a.ElevationGainM != nil {
		b.bucket.TotalElevationGainM += *a.ElevationGainM
	}
	if a.AverageHeartRate != nil {
		b.hrSum += *a.AverageHeartRate
		b.hrCount++
	}
	if a.DistanceKm > b.bucket.LongestDistanceKm {
		b.bucket.LongestDistanceKm = a.DistanceKm
	}
	if a.DistanceKm > 0 {
		b.paceDist += a.DistanceKm
		b.paceTime += a.MovingTimeSec
	}
}

func (b *bucketAccumulator) finish() models.StatsBucket {
	out := b.bucket
	out.TotalDistanceKm = models.Round(out.TotalDistanceKm, 3)
	out.TotalElevationGainM = models.Round(out.TotalElevationGainM, 1)
	out.LongestDistanceKm = models.Round(out.LongestDistanceKm, 3)
	out.AveragePaceSecPerKm = models.PaceSecPerKm(b.paceTime, b.paceDist)
	if b.hrCount > 0 {
		hr := models.Round(b.hrSum/float64(b.hrCount), 1)
		out.AverageHeartRate = &hr
	}
	return out
}

// Rollup reduces activities into consecutive buckets covering [start, end).
// Activities outside the range are ignored.
func Rollup(items []models.Activity, period string, start, end time.Time, loc *time.Location) *models.StatsResponse {
	var accs []*bucketAccumulator
	index := make(map[int64]int)
	for t := start; t.Before(end); t = NextPeriod(t, period) {
		index[t.Unix()] = len(accs)
		accs = append(accs, &bucketAccumulator{bucket: models.StatsBucket{
			PeriodStart: t,
			PeriodEnd:   NextPeriod(t, period),
		}})
	}

	totals := &bucketAccumulator{bucket: models.StatsBucket{PeriodStart: start, PeriodEnd: end}}
	for i := range items {
		a := &items[i]
		idx, ok := index[PeriodStart(a.StartDate, period, loc).Unix()]
		if !ok {
			continue
		}
		accs[idx].add(a)
		totals.add(a)
	}

	buckets := make([]models.StatsBucket, len(accs))
	for i, acc := range accs {
		buckets[i] = acc.finish()
	}

	return &models.StatsResponse{
		Period:   period,
		From:     start,
		To:       end,
		Timezone: loc.String(),
		Buckets:  buckets,
		Totals:   totals.finish(),
	}
}

func (s *Service) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, users.ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
