// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package strava

import (
	"strconv"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tomtom215/aeropacer/internal/models"
)

// ConvertActivity maps a Strava activity onto the local model: metres become
// kilometres, metres per second become km/h, and run cadence is doubled from
// Strava's per-leg count to steps per minute.
func ConvertActivity(userID uuid.UUID, sa *SummaryActivity) *models.Activity {
	externalID := strconv.FormatInt(sa.ID, 10)

	a := &models.Activity{
		ID:             uuid.New(),
		UserID:         userID,
		Source:         models.SourceStrava,
		ExternalID:     &externalID,
		Name:           sa.Name,
		Type:           sa.Sport(),
		StartDate:      sa.StartDate.UTC(),
		DistanceKm:     models.Round(sa.Distance/1000, 3),
		MovingTimeSec:  sa.MovingTime,
		ElapsedTimeSec: sa.ElapsedTime,
		Splits:         datatypes.NewJSONType([]models.Split{}),
		Weather:        datatypes.NewJSONType[*models.Weather](nil),
		RawData:        datatypes.JSONMap(sa.Raw),
	}
	if a.Name == "" {
		a.Name = a.Type
	}

	a.AveragePaceSecPerKm = models.PaceSecPerKm(a.MovingTimeSec, a.DistanceKm)
	a.AverageSpeedKmh = kmh(sa.AverageSpeed)
	a.MaxSpeedKmh = kmh(sa.MaxSpeed)

	elevation := models.Round(sa.TotalElevationGain, 1)
	a.ElevationGainM = &elevation

	if sa.HasHeartrate || sa.AverageHeartrate != nil {
		a.AverageHeartRate = roundPtr(sa.AverageHeartrate, 1)
		a.MaxHeartRate = roundPtr(sa.MaxHeartrate, 1)
	}

	if sa.AverageCadence != nil {
		cadence := *sa.AverageCadence
		if a.IsRun() {
			cadence *= 2
		}
		cadence = models.Round(cadence, 1)
		a.AverageCadence = &cadence
	}

	// Strava's kilojoules figure is mechanical work; at typical muscular
	// efficiency it equals kilocalories burned.
	switch {
	case sa.Calories != nil:
		a.Calories = roundPtr(sa.Calories, 0)
	case sa.Kilojoules != nil:
		a.Calories = roundPtr(sa.Kilojoules, 0)
	}

	if len(sa.StartLatlng) == 2 {
		a.StartLat, a.StartLng = &sa.StartLatlng[0], &sa.StartLatlng[1]
	}
	if len(sa.EndLatlng) == 2 {
		a.EndLat, a.EndLng = &sa.EndLatlng[0], &sa.EndLatlng[1]
	}
	if sa.Map.SummaryPolyline != "" {
		polyline := sa.Map.SummaryPolyline
		a.SummaryPolyline = &polyline
	}

	return a
}

func kmh(metresPerSecond float64) *float64 {
	if metresPerSecond <= 0 {
		return nil
	}
	v := models.Round(metresPerSecond*3.6, 2)
	return &v
}

func roundPtr(v *float64, places int) *float64 {
	if v == nil {
		return nil
	}
	r := models.Round(*v, places)
	return &r
}
