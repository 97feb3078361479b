// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package ml

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/aeropacer/internal/database"
	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/metrics"
	"github.com/tomtom215/aeropacer/internal/models"
	"github.com/tomtom215/aeropacer/internal/users"
)

// historyWindow is how far back activities are sent to the service.
const historyWindow = 90 * 24 * time.Hour

// ActivityStore loads the activities a request is built from.
type ActivityStore interface {
	ListInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.Activity, error)
}

// UserStore loads the profile a request is built from.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service answers coaching requests, falling back to local heuristics.
type Service struct {
	client     *Client
	activities ActivityStore
	users      UserStore
	now        func() time.Time
}

// NewService creates a Service. A nil client serves every request from the fallbacks.
func NewService(client *Client, activities ActivityStore, users UserStore) *Service {
	return &Service{
		client:     client,
		activities: activities,
		users:      users,
		now:        time.Now,
	}
}

// Recommendations returns coaching recommendations for the user.
func (s *Service) Recommendations(ctx context.Context, userID uuid.UUID) (*Recommendations, error) {
	user, items, req, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.client != nil {
		recs, callErr := s.client.Recommendations(ctx, req)
		if callErr == nil {
			if recs == nil {
				recs = []Recommendation{}
			}
			return &Recommendations{Recommendations: recs, Source: SourceService}, nil
		}
		s.fallback(ctx, "recommendations", callErr)
	} else {
		metrics.RecordMLFallback("recommendations")
	}

	load := LocalTrainingLoad(items, user.Profile.Data())
	return &Recommendations{
		Recommendations: LocalRecommendations(items, load),
		Source:          SourceFallback,
	}, nil
}

// Predictions returns race predictions for one distance key, or for every
// supported distance when race is empty.
func (s *Service) Predictions(ctx context.Context, userID uuid.UUID, race string) ([]Prediction, error) {
	races := raceOrder
	if race != "" {
		if _, ok := RaceDistances[race]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedDistance, race)
		}
		races = []string{race}
	}

	_, items, req, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]Prediction, 0, len(races))
	for _, key := range races {
		out = append(out, s.predict(ctx, key, items, req))
	}
	return out, nil
}

func (s *Service) predict(ctx context.Context, race string, items []models.Activity, req *coachRequest) Prediction {
	if s.client == nil {
		metrics.RecordMLFallback("predict")
		return LocalPrediction(race, items, s.now())
	}

	raceReq := *req
	raceReq.RaceDistance = RaceDistances[race]
	wire, err := s.client.Predict(ctx, &raceReq)
	if err != nil {
		s.fallback(ctx, "predict", err)
		return LocalPrediction(race, items, s.now())
	}
	return fromWire(race, wire)
}

// Fatigue returns the user's fatigue analysis.
func (s *Service) Fatigue(ctx context.Context, userID uuid.UUID) (*Fatigue, error) {
	_, _, req, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.client != nil {
		f, callErr := s.client.Fatigue(ctx, req)
		if callErr == nil {
			f.Source = SourceService
			if f.ContributingFactors == nil {
				f.ContributingFactors = []string{}
			}
			return f, nil
		}
		s.fallback(ctx, "fatigue", callErr)
	} else {
		metrics.RecordMLFallback("fatigue")
	}
	f := LocalFatigue()
	return &f, nil
}

// TrainingLoad returns the acute:chronic workload ratio.
func (s *Service) TrainingLoad(ctx context.Context, userID uuid.UUID) (*TrainingLoad, error) {
	user, items, req, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.client != nil {
		tl, callErr := s.client.TrainingLoad(ctx, req)
		if callErr == nil {
			tl.Source = SourceService
			return tl, nil
		}
		s.fallback(ctx, "training_load", callErr)
	} else {
		metrics.RecordMLFallback("training_load")
	}
	tl := LocalTrainingLoad(items, user.Profile.Data())
	return &tl, nil
}

// Health probes the service. It never returns an error.
func (s *Service) Health(ctx context.Context) Health {
	h := Health{CheckedAt: s.now().UTC()}
	if s.client == nil {
		h.Status = "disabled"
		return h
	}

	h.Enabled = true
	start := time.Now()
	details, err := s.client.Health(ctx)
	h.LatencyMS = time.Since(start).Milliseconds()
	h.BreakerState = s.client.BreakerState()
	if err != nil {
		h.Status = "unavailable"
		logging.Ctx(ctx).Debug().Err(err).Msg("ML service health check failed")
		return h
	}
	h.Available = true
	h.Status = "healthy"
	h.Details = details
	return h
}

func (s *Service) fallback(ctx context.Context, op string, err error) {
	metrics.RecordMLFallback(op)
	logging.Ctx(ctx).Warn().
		Err(err).
		Str("operation", op).
		Msg("ML service call failed, serving fallback")
}

// load fetches the user and recent activities and builds the service payload.
func (s *Service) load(ctx context.Context, userID uuid.UUID) (*models.User, []models.Activity, *coachRequest, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil, nil, users.ErrUserNotFound
		}
		return nil, nil, nil, fmt.Errorf("load user: %w", err)
	}

	now := s.now()
	items, err := s.activities.ListInRange(ctx, userID, now.Add(-historyWindow), now)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load recent activities: %w", err)
	}
	return user, items, buildRequest(user, items, now), nil
}

func buildRequest(user *models.User, items []models.Activity, now time.Time) *coachRequest {
	profile := user.Profile.Data()
	req := &coachRequest{
		UserProfile: profilePayload{
			ID:               user.ID.String(),
			Age:              profile.Age(now),
			Gender:           profile.Gender,
			WeightKg:         profile.WeightKg,
			HeightCm:         profile.HeightCm,
			ExperienceLevel:  profile.ExperienceLevel,
			MaxHeartRate:     profile.MaxHeartRate,
			RestingHeartRate: profile.RestingHeartRate,
			WeeklyGoalKm:     user.Preferences.Data().WeeklyGoalKm,
		},
		Activities: make([]activityPayload, 0, len(items)),
	}
	for i := range items {
		a := &items[i]
		req.Activities = append(req.Activities, activityPayload{
			ID:             a.ID.String(),
			Date:           a.StartDate.UTC().Format(time.RFC3339),
			DistanceKm:     a.DistanceKm,
			DurationSec:    a.MovingTimeSec,
			PaceSecPerKm:   a.AveragePaceSecPerKm,
			AvgHeartRate:   a.AverageHeartRate,
			MaxHeartRate:   a.MaxHeartRate,
			ElevationGainM: a.ElevationGainM,
			ActivityType:   a.Type,
		})
	}
	return req
}

func fromWire(race string, w *predictionWire) Prediction {
	p := Prediction{
		Race:             race,
		RaceDistance:     RaceDistances[race],
		PredictedTimeSec: w.PredictedTime,
		PredictedTime:    FormatDuration(w.PredictedTime),
		Confidence:       w.Confidence,
		PacingStrategy:   make([]PaceSplit, 0, len(w.PacingStrategy)),
		Source:           SourceService,
	}
	p.ConfidenceInterval.Lower = firstOf(w.ConfidenceInterval, "lower", "min")
	p.ConfidenceInterval.Upper = firstOf(w.ConfidenceInterval, "upper", "max")
	for _, split := range w.PacingStrategy {
		p.PacingStrategy = append(p.PacingStrategy, PaceSplit{
			Km:                 int(firstOf(split, "km", "distance")),
			TargetPaceSecPerKm: firstOf(split, "target_pace_sec_per_km", "target_pace"),
			CumulativeTimeSec:  firstOf(split, "cumulative_time_sec", "cumulative_time"),
		})
	}
	return p
}

func firstOf(m map[string]float64, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return 0
}
