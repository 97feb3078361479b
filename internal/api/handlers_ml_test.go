// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/tomtom215/aeropacer/internal/ml"
)

func TestMLEndpoints(t *testing.T) {
	e := newTestEnv(t, nil)
	tok, _ := e.token("user")

	for _, path := range []string{"/api/v1/ml/recommendations", "/api/v1/ml/fatigue", "/api/v1/ml/training-load"} {
		t.Run(path, func(t *testing.T) {
			rec := e.do(http.MethodGet, path, "", tok)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var body struct {
				Source string `json:"source"`
			}
			decodeData(t, decodeEnvelope(t, rec), &body)
			if body.Source != ml.SourceFallback {
				t.Errorf("source = %q", body.Source)
			}
		})
	}
}

func TestMLPredictions_Distance(t *testing.T) {
	e := newTestEnv(t, nil)
	tok, _ := e.token("user")

	rec := e.do(http.MethodGet, "/api/v1/ml/predictions?distance=%2010K%20", "", tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if e.ml.race != "10k" {
		t.Errorf("race = %q, want normalized 10k", e.ml.race)
	}

	rec = e.do(http.MethodGet, "/api/v1/ml/predictions", "", tok)
	if rec.Code != http.StatusOK || e.ml.race != "" {
		t.Fatalf("status = %d race = %q", rec.Code, e.ml.race)
	}

	expectError(t, e.do(http.MethodGet, "/api/v1/ml/predictions?distance=50k", "", tok), http.StatusBadRequest, ErrCodeBadRequest)
}

func TestMLHealth_Unavailable(t *testing.T) {
	e := newTestEnv(t, nil)
	e.ml.health = ml.Health{Enabled: true, Status: "unavailable", BreakerState: "open"}

	rec := e.do(http.MethodGet, "/api/v1/ml/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var h ml.Health
	decodeData(t, decodeEnvelope(t, rec), &h)
	if h.Status != "unavailable" || h.BreakerState != "open" {
		t.Errorf("health = %+v", h)
	}
}

func TestHealthReady(t *testing.T) {
	e := newTestEnv(t, nil)

	rec := e.do(http.MethodGet, "/health/ready", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body HealthResponse
	decodeData(t, decodeEnvelope(t, rec), &body)
	if body.Status != "ready" || body.Checks["database"].Status != "healthy" || body.Checks["ml"].Status != "healthy" {
		t.Errorf("body = %+v", body)
	}

	// ML being down does not affect readiness.
	e.ml.health = ml.Health{Enabled: true, Status: "unavailable"}
	if rec := e.do(http.MethodGet, "/health/ready", "", ""); rec.Code != http.StatusOK {
		t.Errorf("ml down: status = %d, want 200", rec.Code)
	}

	e.db.err = errors.New("connection refused")
	rec = e.do(http.MethodGet, "/health", "", "")
	env := expectError(t, rec, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
	if env.Error.Details["checks"] == nil {
		t.Error("missing checks in details")
	}
}
