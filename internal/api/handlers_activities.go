// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package api

import (
	"net/http"

	"github.com/tomtom215/aeropacer/internal/activities"
)

// ListActivities pages the caller's activities, newest first.
//
// @Summary     List activities
// @Tags        activities
// @Produce     json
// @Security    BearerAuth
// @Param       limit  query int    false "Page size"
// @Param       offset query int    false "Rows to skip"
// @Param       from   query string false "Earliest start date"
// @Param       to     query string false "Latest start date"
// @Param       type   query string false "Activity type"
// @Param       source query string false "manual or strava"
// @Success     200 {object} models.APIResponse{data=[]models.Activity}
// @Router      /api/v1/activities [get]
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	in, err := activityListInput(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.svc.Activities.List(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondPage(w, r, result.Activities, result.Page)
}

func activityListInput(r *http.Request) (activities.ListInput, error) {
	var in activities.ListInput
	var err error
	if in.Limit, in.Offset, err = pagination(r); err != nil {
		return in, err
	}
	if in.From, err = queryTime(r, "from"); err != nil {
		return in, err
	}
	if in.To, err = queryTime(r, "to"); err != nil {
		return in, err
	}
	q := r.URL.Query()
	in.Type = q.Get("type")
	in.Source = q.Get("source")
	return in, nil
}

// CreateActivity records a manually entered activity.
//
// @Summary     Create activity
// @Tags        activities
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body activities.CreateInput true "Activity"
// @Success     201 {object} models.APIResponse{data=models.Activity}
// @Failure     400 {object} models.APIResponse
// @Router      /api/v1/activities [post]
func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var in activities.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	activity, err := h.svc.Activities.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondCreated(w, r, activity)
}

// GetActivity returns one of the caller's activities.
//
// @Summary     Get activity
// @Tags        activities
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Activity ID"
// @Success     200 {object} models.APIResponse{data=models.Activity}
// @Failure     404 {object} models.APIResponse
// @Router      /api/v1/activities/{id} [get]
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	activity, err := h.svc.Activities.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, activity)
}

// UpdateActivity applies a partial update.
//
// @Summary     Update activity
// @Tags        activities
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id   path string                 true "Activity ID"
// @Param       body body activities.UpdateInput true "Fields to change"
// @Success     200 {object} models.APIResponse{data=models.Activity}
// @Failure     404 {object} models.APIResponse
// @Router      /api/v1/activities/{id} [put]
func (h *Handler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in activities.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	activity, err := h.svc.Activities.Update(r.Context(), userID, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, activity)
}

// DeleteActivity removes an activity.
//
// @Summary     Delete activity
// @Tags        activities
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Activity ID"
// @Success     200 {object} models.APIResponse
// @Failure     404 {object} models.APIResponse
// @Router      /api/v1/activities/{id} [delete]
func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.svc.Activities.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, map[string]interface{}{"deleted": true, "id": id})
}

// ActivityStats rolls activities up by week or month.
//
// @Summary     Activity stats
// @Tags        activities
// @Produce     json
// @Security    BearerAuth
// @Param       period query string false "week (default) or month"
// @Param       from   query string false "First day"
// @Param       to     query string false "Last day, inclusive"
// @Success     200 {object} models.APIResponse{data=models.StatsResponse}
// @Router      /api/v1/activities/stats [get]
func (h *Handler) ActivityStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	in := activities.StatsInput{Period: r.URL.Query().Get("period")}
	var err error
	if in.From, err = queryTime(r, "from"); err != nil {
		writeError(w, r, err)
		return
	}
	if in.To, err = queryTime(r, "to"); err != nil {
		writeError(w, r, err)
		return
	}

	stats, err := h.svc.Activities.Stats(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, stats)
}

// ActivitySummary returns lifetime totals, personal bests and streaks.
//
// @Summary     Activity summary
// @Tags        activities
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.APIResponse{data=models.ActivitySummary}
// @Router      /api/v1/activities/summary [get]
func (h *Handler) ActivitySummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	summary, err := h.svc.Activities.Summary(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, summary)
}
