// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package activities

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tomtom215/aeropacer/internal/config"
	"github.com/tomtom215/aeropacer/internal/database"
	"github.com/tomtom215/aeropacer/internal/events"
	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/models"
	"github.com/tomtom215/aeropacer/internal/validation"
)

// ErrActivityNotFound is returned when the activity does not exist or belongs
// to another user.
var ErrActivityNotFound = errors.New("activity not found")

// maxFutureSkew bounds how far in the future a manual start date may be.
const maxFutureSkew = 24 * time.Hour

// Store is the subset of the activity repository used here.
type Store interface {
	Create(ctx context.Context, a *models.Activity) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Activity, error)
	Update(ctx context.Context, a *models.Activity) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	List(ctx context.Context, f models.ActivityFilter) ([]models.Activity, int64, error)
	ListInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.Activity, error)
	Totals(ctx context.Context, userID uuid.UUID, from, to *time.Time) (models.SummaryTotals, error)
	PersonalBests(ctx context.Context, userID uuid.UUID) (models.PersonalBests, error)
	StartDatesSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]time.Time, error)
}

// UserStore loads the owner for time zone and goal settings.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, topic string, userID uuid.UUID, data interface{}) error
}

// Tracker records server-side analytics events.
type Tracker interface {
	TrackInternal(ctx context.Context, userID uuid.UUID, eventName string, properties map[string]interface{})
}

// CreateInput is a manually entered activity.
type CreateInput struct {
	Name             string          `json:"name" validate:"required,max=255"`
	Type             string          `json:"type" validate:"required,oneof=Run TrailRun VirtualRun Walk Hike Ride Workout"`
	StartDate        time.Time       `json:"start_date" validate:"required"`
	DistanceKm       float64         `json:"distance_km" validate:"min=0,max=1000"`
	MovingTimeSec    int             `json:"moving_time_sec" validate:"required,min=1,max=604800"`
	ElapsedTimeSec   *int            `json:"elapsed_time_sec" validate:"omitempty,min=1,max=604800"`
	ElevationGainM   *float64        `json:"elevation_gain_m" validate:"omitempty,min=0,max=20000"`
	AverageHeartRate *float64        `json:"average_heart_rate" validate:"omitempty,min=25,max=250"`
	MaxHeartRate     *float64        `json:"max_heart_rate" validate:"omitempty,min=25,max=250"`
	AverageCadence   *float64        `json:"average_cadence" validate:"omitempty,min=0,max=300"`
	Calories         *float64        `json:"calories" validate:"omitempty,min=0,max=20000"`
	Splits           []models.Split  `json:"splits" validate:"omitempty,max=1000"`
	Weather          *models.Weather `json:"weather"`
}

// UpdateInput is a partial activity update. Nil fields are left unchanged.
type UpdateInput struct {
	Name             *string         `json:"name" validate:"omitempty,min=1,max=255"`
	Type             *string         `json:"type" validate:"omitempty,oneof=Run TrailRun VirtualRun Walk Hike Ride Workout"`
	StartDate        *time.Time      `json:"start_date"`
	DistanceKm       *float64        `json:"distance_km" validate:"omitempty,min=0,max=1000"`
	MovingTimeSec    *int            `json:"moving_time_sec" validate:"omitempty,min=1,max=604800"`
	ElapsedTimeSec   *int            `json:"elapsed_time_sec" validate:"omitempty,min=1,max=604800"`
	ElevationGainM   *float64        `json:"elevation_gain_m" validate:"omitempty,min=0,max=20000"`
	AverageHeartRate *float64        `json:"average_heart_rate" validate:"omitempty,min=25,max=250"`
	MaxHeartRate     *float64        `json:"max_heart_rate" validate:"omitempty,min=25,max=250"`
	AverageCadence   *float64        `json:"average_cadence" validate:"omitempty,min=0,max=300"`
	Calories         *float64        `json:"calories" validate:"omitempty,min=0,max=20000"`
	Weather          *models.Weather `json:"weather"`
}

// ListInput filters and pages an activity listing.
type ListInput struct {
	Limit  int        `json:"limit" validate:"min=0"`
	Offset int        `json:"offset" validate:"min=0"`
	From   *time.Time `json:"from"`
	To     *time.Time `json:"to"`
	Type   string     `json:"type" validate:"omitempty,max=50"`
	Source string     `json:"source" validate:"omitempty,oneof=manual strava"`
}

// ListResult is one page of activities.
type ListResult struct {
	Activities []models.Activity
	Page       models.Page
}

// Service implements activity CRUD, stats and summaries.
type Service struct {
	store     Store
	users     UserStore
	publisher Publisher
	tracker   Tracker
	cache     *StatsCache

	defaultLimit int
	maxLimit     int
	now          func() time.Time
}

// NewService wires the service. publisher, tracker and statsCache may be nil.
func NewService(cfg *config.Config, store Store, users UserStore, publisher Publisher, tracker Tracker, statsCache *StatsCache) *Service {
	return &Service{
		store:        store,
		users:        users,
		publisher:    publisher,
		tracker:      tracker,
		cache:        statsCache,
		defaultLimit: cfg.API.DefaultPageSize,
		maxLimit:     cfg.API.MaxPageSize,
		now:          time.Now,
	}
}

// InvalidateUser drops the user's cached stats.
func (s *Service) InvalidateUser(userID uuid.UUID) {
	s.cache.InvalidateUser(userID)
}

// List returns a page of the user's activities, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, in ListInput) (*ListResult, error) {
	if verr := validation.ValidateStruct(&in); verr != nil {
		return nil, verr
	}
	if in.Limit == 0 {
		in.Limit = s.defaultLimit
	}
	if in.Limit > s.maxLimit {
		return nil, validation.NewError("limit", "max",
			fmt.Sprintf("limit must be between 1 and %d", s.maxLimit))
	}
	if in.From != nil && in.To != nil && !in.From.Before(*in.To) {
		return nil, validation.NewError("from", "ltfield", "from must be before to")
	}

	items, total, err := s.store.List(ctx, models.ActivityFilter{
		UserID: userID,
		From:   in.From,
		To:     in.To,
		Type:   in.Type,
		Source: in.Source,
		Limit:  in.Limit,
		Offset: in.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return &ListResult{
		Activities: items,
		Page:       models.Page{Total: total, Limit: in.Limit, Offset: in.Offset},
	}, nil
}

// Get returns one of the user's activities.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*models.Activity, error) {
	a, err := s.store.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return a, nil
}

// Create stores a manual activity and derives its pace and speed.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*models.Activity, error) {
	if verr := validation.ValidateStruct(&in); verr != nil {
		return nil, verr
	}
	if err := s.checkStartDate(in.StartDate); err != nil {
		return nil, err
	}

	elapsed := in.MovingTimeSec
	if in.ElapsedTimeSec != nil {
		elapsed = *in.ElapsedTimeSec
	}
	if elapsed < in.MovingTimeSec {
		return nil, validation.NewError("elapsed_time_sec", "gtefield",
			"elapsed_time_sec must not be less than moving_time_sec")
	}
	if err := checkHeartRates(in.AverageHeartRate, in.MaxHeartRate); err != nil {
		return nil, err
	}

	splits := in.Splits
	if splits == nil {
		splits = []models.Split{}
	}

	a := &models.Activity{
		UserID:           userID,
		Source:           models.SourceManual,
		Name:             strings.TrimSpace(in.Name),
		Type:             in.Type,
		StartDate:        in.StartDate.UTC(),
		DistanceKm:       models.Round(in.DistanceKm, 3),
		MovingTimeSec:    in.MovingTimeSec,
		ElapsedTimeSec:   elapsed,
		ElevationGainM:   in.ElevationGainM,
		AverageHeartRate: in.AverageHeartRate,
		MaxHeartRate:     in.MaxHeartRate,
		AverageCadence:   in.AverageCadence,
		Calories:         in.Calories,
		Splits:           datatypes.NewJSONType(splits),
		Weather:          datatypes.NewJSONType(in.Weather),
	}
	a.DerivePace()

	if err := s.store.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}

	s.changed(ctx, userID, a, events.ActionCreated, models.EventActivityCreated)
	return a, nil
}

// Update applies the non-nil fields of in to one of the user's activities.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, in UpdateInput) (*models.Activity, error) {
	if verr := validation.ValidateStruct(&in); verr != nil {
		return nil, verr
	}

	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.StartDate != nil {
		if err := s.checkStartDate(*in.StartDate); err != nil {
			return nil, err
		}
		a.StartDate = in.StartDate.UTC()
	}
	if in.Name != nil {
		a.Name = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		a.Type = *in.Type
	}

	recompute := false
	if in.DistanceKm != nil {
		a.DistanceKm = models.Round(*in.DistanceKm, 3)
		recompute = true
	}
	if in.MovingTimeSec != nil {
		a.MovingTimeSec = *in.MovingTimeSec
		recompute = true
	}
	if in.ElapsedTimeSec != nil {
		a.ElapsedTimeSec = *in.ElapsedTimeSec
	}
	if a.ElapsedTimeSec < a.MovingTimeSec {
		return nil, validation.NewError("elapsed_time_sec", "gtefield",
			"elapsed_time_sec must not be less than moving_time_sec")
	}

	if in.ElevationGainM != nil {
		a.ElevationGainM = in.ElevationGainM
	}
	if in.AverageHeartRate != nil {
		a.AverageHeartRate = in.AverageHeartRate
	}
	if in.MaxHeartRate != nil {
		a.MaxHeartRate = in.MaxHeartRate
	}
	if err := checkHeartRates(a.AverageHeartRate, a.MaxHeartRate); err != nil {
		return nil, err
	}
	if in.AverageCadence != nil {
		a.AverageCadence = in.AverageCadence
	}
	if in.Calories != nil {
		a.Calories = in.Calories
	}
	if in.Weather != nil {
		a.Weather = datatypes.NewJSONType(in.Weather)
	}

	if recompute {
		// Speed is re-derived from the new distance and time.
		a.AverageSpeedKmh = nil
		a.DerivePace()
	}

	if err := s.store.Update(ctx, a); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("update activity: %w", err)
	}

	s.changed(ctx, userID, a, events.ActionUpdated, models.EventActivityUpdated)
	return a, nil
}

// Delete removes one of the user's activities.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrActivityNotFound
		}
		return fmt.Errorf("delete activity: %w", err)
	}

	s.changed(ctx, userID, &models.Activity{ID: id, UserID: userID}, events.ActionDeleted, models.EventActivityDeleted)
	return nil
}

func (s *Service) checkStartDate(start time.Time) error {
	if start.IsZero() {
		return validation.NewError("start_date", "required", "start_date is required")
	}
	if start.After(s.now().Add(maxFutureSkew)) {
		return validation.NewError("start_date", "past", "start_date must not be in the future")
	}
	return nil
}

func checkHeartRates(avg, maxHR *float64) error {
	if avg != nil && maxHR != nil && *avg > *maxHR {
		return validation.NewError("average_heart_rate", "ltefield",
			"average_heart_rate must not exceed max_heart_rate")
	}
	return nil
}

// changed invalidates local caches and announces the change. Other
// instances drop their caches when the event arrives.
func (s *Service) changed(ctx context.Context, userID uuid.UUID, a *models.Activity, action, eventName string) {
	s.cache.InvalidateUser(userID)

	if s.publisher != nil {
		payload := events.ActivityChanged{ActivityID: a.ID, Action: action}
		if err := s.publisher.Publish(ctx, events.TopicActivityChanged, userID, payload); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("activity_id", a.ID.String()).Msg("Failed to publish activity change")
		}
	}

	if s.tracker != nil {
		props := map[string]interface{}{"activity_id": a.ID.String()}
		if a.Type != "" {
			props["type"] = a.Type
			props["source"] = a.Source
		}
		s.tracker.TrackInternal(ctx, userID, eventName, props)
	}
}
