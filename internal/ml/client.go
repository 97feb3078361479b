// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package ml

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aeropacer/internal/circuitbreaker"
	"github.com/tomtom215/aeropacer/internal/config"
	"github.com/tomtom215/aeropacer/internal/metrics"
)

const maxErrorBodyBytes = 4096

// APIError is a non-2xx answer from the ML service.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ml %s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// IsClientError reports whether err is a 4xx answer from the service.
func IsClientError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
}

// Client calls the ML service over HTTP through a circuit breaker.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
}

// NewClient creates a Client from the ML configuration.
func NewClient(cfg *config.MLConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		breaker: circuitbreaker.New("ml-service", circuitbreaker.Settings{
			IsSuccessful: func(err error) bool { return err == nil || IsClientError(err) },
		}),
	}
}

// BreakerState returns the circuit breaker state name.
func (c *Client) BreakerState() string { return c.breaker.State() }

// Recommendations posts to /recommendations.
func (c *Client) Recommendations(ctx context.Context, req *coachRequest) ([]Recommendation, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "recommendations", http.MethodPost, "/recommendations", req, &raw); err != nil {
		return nil, err
	}
	var list []Recommendation
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped recommendationsWire
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode ml recommendations: %w", err)
	}
	return wrapped.Recommendations, nil
}

// Predict posts to /predict for one race distance in metres.
func (c *Client) Predict(ctx context.Context, req *coachRequest) (*predictionWire, error) {
	var out predictionWire
	if err := c.call(ctx, "predict", http.MethodPost, "/predict", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Fatigue posts to /fatigue.
func (c *Client) Fatigue(ctx context.Context, req *coachRequest) (*Fatigue, error) {
	var out Fatigue
	if err := c.call(ctx, "fatigue", http.MethodPost, "/fatigue", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TrainingLoad posts to /training-load.
func (c *Client) TrainingLoad(ctx context.Context, req *coachRequest) (*TrainingLoad, error) {
	var out TrainingLoad
	if err := c.call(ctx, "training_load", http.MethodPost, "/training-load", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health calls GET /health and returns the decoded body.
func (c *Client) Health(ctx context.Context) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if err := c.call(ctx, "health", http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// call runs one request through the breaker and records its metrics.
func (c *Client) call(ctx context.Context, endpoint, method, path string, body, out interface{}) error {
	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.do(ctx, endpoint, method, path, body, out)
	})
	metrics.RecordMLRequest(endpoint, time.Since(start), err)
	return err
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode ml %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build ml request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ml request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		text := strings.TrimSpace(string(msg))
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint, Message: text}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode ml %s response: %w", endpoint, err)
	}
	return nil
}
