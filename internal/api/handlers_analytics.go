// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package api

import (
	"net/http"

	"github.com/tomtom215/aeropacer/internal/analytics"
	"github.com/tomtom215/aeropacer/internal/middleware"
)

func analyticsClient(r *http.Request) analytics.Client {
	return analytics.Client{
		UserID:    optionalUser(r),
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// TrackEvent records one client event. Anonymous callers are accepted.
//
// @Summary     Track event
// @Tags        analytics
// @Accept      json
// @Produce     json
// @Param       body body analytics.TrackInput true "Event"
// @Success     201 {object} models.APIResponse{data=models.AnalyticsEvent}
// @Failure     400 {object} models.APIResponse
// @Router      /api/v1/analytics/events [post]
func (h *Handler) TrackEvent(w http.ResponseWriter, r *http.Request) {
	var in analytics.TrackInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	event, err := h.svc.Analytics.Track(r.Context(), in, analyticsClient(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondCreated(w, r, event)
}

// TrackEventBatch records up to 50 events; either all are stored or none.
//
// @Summary     Track event batch
// @Tags        analytics
// @Accept      json
// @Produce     json
// @Param       body body analytics.BatchInput true "Events"
// @Success     201 {object} models.APIResponse
// @Failure     400 {object} models.APIResponse
// @Router      /api/v1/analytics/events/batch [post]
func (h *Handler) TrackEventBatch(w http.ResponseWriter, r *http.Request) {
	var in analytics.BatchInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	n, err := h.svc.Analytics.TrackBatch(r.Context(), in, analyticsClient(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondCreated(w, r, map[string]int{"recorded": n})
}

func analyticsListInput(r *http.Request) (analytics.ListInput, error) {
	in := analytics.ListInput{EventName: r.URL.Query().Get("event_name")}
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
	return in, nil
}

// ListMyEvents pages the caller's own events.
//
// @Summary     List my events
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       event_name query string false "Filter by name"
// @Param       from       query string false "Earliest timestamp"
// @Param       to         query string false "Latest timestamp"
// @Param       limit      query int    false "Page size"
// @Param       offset     query int    false "Rows to skip"
// @Success     200 {object} models.APIResponse{data=[]models.AnalyticsEvent}
// @Router      /api/v1/analytics/events [get]
func (h *Handler) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	in, err := analyticsListInput(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.svc.Analytics.ListForUser(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondPage(w, r, result.Events, result.Page)
}

// AdminListEvents pages events across all users.
//
// @Summary     List all events
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       user_id    query string false "Filter by user"
// @Param       event_name query string false "Filter by name"
// @Param       from       query string false "Earliest timestamp"
// @Param       to         query string false "Latest timestamp"
// @Param       limit      query int    false "Page size"
// @Param       offset     query int    false "Rows to skip"
// @Success     200 {object} models.APIResponse{data=[]models.AnalyticsEvent}
// @Failure     403 {object} models.APIResponse
// @Router      /api/v1/admin/analytics/events [get]
func (h *Handler) AdminListEvents(w http.ResponseWriter, r *http.Request) {
	in, err := analyticsListInput(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := parseUUID(raw, "user_id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		in.UserID = &id
	}

	result, err := h.svc.Analytics.List(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondPage(w, r, result.Events, result.Page)
}

// AdminEventSummary counts events by name over a window (default 30 days).
//
// @Summary     Event summary
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       from query string false "Window start"
// @Param       to   query string false "Window end"
// @Success     200 {object} models.APIResponse{data=analytics.Summary}
// @Failure     403 {object} models.APIResponse
// @Router      /api/v1/admin/analytics/summary [get]
func (h *Handler) AdminEventSummary(w http.ResponseWriter, r *http.Request) {
	from, err := queryTime(r, "from")
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := h.svc.Analytics.Summary(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondOK(w, r, summary)
}
