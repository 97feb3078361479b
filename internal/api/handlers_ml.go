// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package api

import (
	"net/http"
	"strings"
)

// MLRecommendations returns training recommendations for the caller.
//
// @Summary     Recommendations
// @Tags        ml
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.APIResponse{data=ml.Recommendations}
// @Router      /api/v1/ml/recommendations [get]
func (h *Handler) MLRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	recs, err := h.svc.ML.Recommendations(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, recs)
}

// MLPredictions returns race time predictions. Without distance every
// supported race is predicted.
//
// @Summary     Race predictions
// @Tags        ml
// @Produce     json
// @Security    BearerAuth
// @Param       distance query string false "5k, 10k, half or marathon"
// @Success     200 {object} models.APIResponse{data=[]ml.Prediction}
// @Failure     400 {object} models.APIResponse
// @Router      /api/v1/ml/predictions [get]
func (h *Handler) MLPredictions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	race := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("distance")))
	predictions, err := h.svc.ML.Predictions(r.Context(), userID, race)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, predictions)
}

// MLFatigue returns the caller's fatigue estimate.
//
// @Summary     Fatigue
// @Tags        ml
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.APIResponse{data=ml.Fatigue}
// @Router      /api/v1/ml/fatigue [get]
func (h *Handler) MLFatigue(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	fatigue, err := h.svc.ML.Fatigue(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, fatigue)
}

// MLTrainingLoad returns the acute:chronic workload ratio.
//
// @Summary     Training load
// @Tags        ml
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.APIResponse{data=ml.TrainingLoad}
// @Router      /api/v1/ml/training-load [get]
func (h *Handler) MLTrainingLoad(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	load, err := h.svc.ML.TrainingLoad(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, load)
}

// MLHealth reports coaching service availability. Always 200; the service
// being down only means fallbacks are in use.
//
// @Summary     Coaching service health
// @Tags        ml
// @Produce     json
// @Success     200 {object} models.APIResponse{data=ml.Health}
// @Router      /api/v1/ml/health [get]
func (h *Handler) MLHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, h.svc.ML.Health(r.Context()))
}
