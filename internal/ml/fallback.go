// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package ml

import (
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/aeropacer/internal/models"
)

const (
	acuteDays         = 7
	chronicDays       = 28
	minLoadActivities = 7

	lowLoadRatio  = 0.8
	highLoadRatio = 1.3

	riegelExponent = 1.06
	minRiegelKm    = 1.0
)

var runningTypes = map[string]bool{
	"Run":        true,
	"TrailRun":   true,
	"VirtualRun": true,
}

// EffortScore is the training effort of one activity: duration in minutes,
// scaled by relative heart rate and by elevation gain when those are known.
func EffortScore(a *models.Activity, maxHR float64) float64 {
	effort := float64(a.MovingTimeSec) / 60
	if a.AverageHeartRate != nil && maxHR > 0 {
		effort *= 1 + *a.AverageHeartRate/maxHR
	}
	if a.ElevationGainM != nil && *a.ElevationGainM > 0 {
		effort *= 1 + *a.ElevationGainM/100*0.1
	}
	return effort
}

// referenceMaxHR picks the profile maximum, else the highest recorded heart rate.
func referenceMaxHR(profile models.UserProfile, items []models.Activity) float64 {
	if profile.MaxHeartRate != nil && *profile.MaxHeartRate > 0 {
		return float64(*profile.MaxHeartRate)
	}
	var best float64
	for i := range items {
		if hr := items[i].MaxHeartRate; hr != nil && *hr > best {
			best = *hr
		}
		if hr := items[i].AverageHeartRate; hr != nil && *hr > best {
			best = *hr
		}
	}
	return best
}

// LocalTrainingLoad computes the acute:chronic workload ratio from daily
// running effort totals over the 28 days ending on the latest run's day.
// Other activity types are ignored.
func LocalTrainingLoad(all []models.Activity, profile models.UserProfile) TrainingLoad {
	items := make([]models.Activity, 0, len(all))
	for i := range all {
		if runningTypes[all[i].Type] {
			items = append(items, all[i])
		}
	}
	if len(items) < minLoadActivities {
		return TrainingLoad{
			RiskLevel:      RiskInsufficientData,
			Recommendation: "Need more training data for accurate analysis",
			Source:         SourceFallback,
		}
	}

	maxHR := referenceMaxHR(profile, items)
	daily := make(map[string]float64)
	var latest time.Time
	for i := range items {
		day := items[i].StartDate.UTC().Truncate(24 * time.Hour)
		daily[day.Format(time.DateOnly)] += EffortScore(&items[i], maxHR)
		if day.After(latest) {
			latest = day
		}
	}

	var acute, chronic float64
	for d := 0; d < chronicDays; d++ {
		load := daily[latest.AddDate(0, 0, -d).Format(time.DateOnly)]
		chronic += load
		if d < acuteDays {
			acute += load
		}
	}
	acute /= acuteDays
	chronic /= chronicDays

	var ratio float64
	if chronic > 0 {
		ratio = acute / chronic
	}

	out := TrainingLoad{
		AcuteLoad:   round(acute, 2),
		ChronicLoad: round(chronic, 2),
		Ratio:       round(ratio, 2),
		Source:      SourceFallback,
	}
	switch {
	case ratio < lowLoadRatio:
		out.RiskLevel = RiskLow
		out.Recommendation = "Consider gradually increasing training volume"
	case ratio > highLoadRatio:
		out.RiskLevel = RiskHigh
		out.Recommendation = "High training stress - consider rest or easy training"
	default:
		out.RiskLevel = RiskModerate
		out.Recommendation = "Good training balance - maintain current approach"
	}
	return out
}

// RiegelTime predicts the time for distance d2 from time t1 over distance d1.
func RiegelTime(t1, d1, d2 float64) float64 {
	if d1 <= 0 {
		return 0
	}
	return t1 * math.Pow(d2/d1, riegelExponent)
}

// LocalPrediction predicts a race time from the best recent run.
func LocalPrediction(race string, items []models.Activity, now time.Time) Prediction {
	meters := RaceDistances[race]
	out := Prediction{
		Race:           race,
		RaceDistance:   meters,
		PacingStrategy: []PaceSplit{},
		Source:         SourceFallback,
	}

	var best float64
	var runs int
	var last time.Time
	for i := range items {
		a := &items[i]
		if !runningTypes[a.Type] || a.DistanceKm < minRiegelKm || a.MovingTimeSec <= 0 {
			continue
		}
		runs++
		if a.StartDate.After(last) {
			last = a.StartDate
		}
		t := RiegelTime(float64(a.MovingTimeSec), a.DistanceKm*1000, meters)
		if best == 0 || t < best {
			best = t
		}
	}
	if runs == 0 {
		return out
	}

	recency := 1 - now.Sub(last).Hours()/24/30
	confidence := (math.Min(1, float64(runs)/20) + math.Max(0.3, recency)) / 2
	margin := best * (0.05 + 0.1*(1-confidence))

	out.PredictedTimeSec = math.Round(best)
	out.PredictedTime = FormatDuration(best)
	out.ConfidenceInterval = ConfidenceInterval{
		Lower: math.Round(best - margin),
		Upper: math.Round(best + margin),
	}
	out.PacingStrategy = PacingStrategy(meters, best)
	out.Confidence = round(confidence, 2)
	return out
}

// PacingStrategy splits a race into per-kilometre target paces. Races up to
// 10k start slightly fast and finish fast; longer races start conservatively
// and pick up over the final fifth.
func PacingStrategy(meters, totalSec float64) []PaceSplit {
	km := meters / 1000
	if km < 1 || totalSec <= 0 {
		return []PaceSplit{}
	}
	avg := totalSec / km
	whole := int(km)
	splits := make([]PaceSplit, 0, whole)
	var cumulative float64
	for k := 1; k <= whole; k++ {
		factor := 1.0
		if km <= 10 {
			switch k {
			case 1:
				factor = 0.98
			case whole:
				factor = 0.95
			}
		} else {
			switch {
			case k <= 3:
				factor = 1.02
			case float64(k) > km*0.8:
				factor = 0.98
			}
		}
		pace := avg * factor
		cumulative += pace
		splits = append(splits, PaceSplit{
			Km:                 k,
			TargetPaceSecPerKm: math.Round(pace),
			CumulativeTimeSec:  math.Round(cumulative),
		})
	}
	return splits
}

// LocalRecommendations returns the offline coaching advice.
func LocalRecommendations(items []models.Activity, load TrainingLoad) []Recommendation {
	if len(items) == 0 {
		return []Recommendation{{
			Type:       "coaching_insight",
			Title:      "Getting Started",
			Message:    "Start with 3-4 easy runs per week, 20-30 minutes each",
			Priority:   "high",
			Confidence: 0.9,
			Category:   "training",
		}}
	}

	recs := []Recommendation{{
		Type:       "coaching_insight",
		Title:      "Stay Consistent",
		Message:    "Keep a steady weekly routine and build volume gradually",
		Priority:   "medium",
		Confidence: 0.6,
		Category:   "training",
		DataPoints: map[string]interface{}{"recent_activities": len(items)},
	}}

	switch {
	case load.RiskLevel == RiskHigh:
		recs = append(recs, Recommendation{
			Type:       "coaching_insight",
			Title:      "Training Load Warning",
			Message:    load.Recommendation,
			Priority:   "high",
			Confidence: 0.85,
			Category:   "recovery",
			DataPoints: map[string]interface{}{"load_ratio": load.Ratio, "acute_load": load.AcuteLoad},
		})
	case load.RiskLevel == RiskLow && load.Ratio < lowLoadRatio:
		recs = append(recs, Recommendation{
			Type:       "coaching_insight",
			Title:      "Training Load Opportunity",
			Message:    load.Recommendation,
			Priority:   "medium",
			Confidence: 0.7,
			Category:   "training",
			DataPoints: map[string]interface{}{"load_ratio": load.Ratio},
		})
	}
	return recs
}

// LocalFatigue is the fixed estimate served when the service is unreachable.
func LocalFatigue() Fatigue {
	return Fatigue{
		FatigueScore:           50,
		RecoveryRecommendation: "Listen to your body and include an easy day after hard sessions",
		DaysToFullRecovery:     1,
		TrainingReadiness:      "medium",
		ContributingFactors:    []string{"Insufficient data for a detailed fatigue analysis"},
		Source:                 SourceFallback,
	}
}

// FormatDuration renders seconds as h:mm:ss, or m:ss under an hour.
func FormatDuration(sec float64) string {
	total := int(math.Round(sec))
	h, m, s := total/3600, total%3600/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
