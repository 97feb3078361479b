// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package api

import (
	"context"
	"net/http"
	"time"
)

const readinessTimeout = 3 * time.Second

// HealthResponse is the body of /health and /health/ready.
type HealthResponse struct {
	Status    string                     `json:"status"`
	Version   string                     `json:"version,omitempty"`
	Uptime    string                     `json:"uptime"`
	Checks    map[string]ComponentHealth `json:"checks,omitempty"`
	Timestamp time.Time                  `json:"timestamp"`
}

// ComponentHealth is the state of one dependency.
type ComponentHealth struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// HealthLive reports that the process is serving requests.
//
// @Summary     Liveness
// @Tags        health
// @Produce     json
// @Success     200 {object} models.APIResponse{data=HealthResponse}
// @Router      /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, HealthResponse{
		Status:    "ok",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	})
}

// HealthReady checks the database and reports the coaching service. Only the
// database gates readiness: ML has local fallbacks.
//
// @Summary     Readiness
// @Tags        health
// @Produce     json
// @Success     200 {object} models.APIResponse{data=HealthResponse}
// @Failure     503 {object} models.APIResponse
// @Router      /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]ComponentHealth, 2)
	ready := true

	if h.svc.DB != nil {
		start := time.Now()
		c := ComponentHealth{Status: "healthy"}
		if err := h.svc.DB.Ping(ctx); err != nil {
			c.Status = "unhealthy"
			c.Error = err.Error()
			ready = false
		}
		c.LatencyMS = time.Since(start).Milliseconds()
		checks["database"] = c
	}

	if h.svc.ML != nil {
		mh := h.svc.ML.Health(ctx)
		checks["ml"] = ComponentHealth{Status: mh.Status, LatencyMS: mh.LatencyMS}
	}

	if !ready {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "service not ready",
			map[string]interface{}{"checks": checks})
		return
	}

	respondOK(w, r, HealthResponse{
		Status:    "ready",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    checks,
		Timestamp: time.Now().UTC(),
	})
}

// Health is HealthReady under the legacy path.
//
// @Summary     Health
// @Tags        health
// @Produce     json
// @Success     200 {object} models.APIResponse{data=HealthResponse}
// @Router      /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.HealthReady(w, r)
}
