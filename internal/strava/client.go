// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package strava

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/aeropacer/internal/circuitbreaker"
	"github.com/tomtom215/aeropacer/internal/config"
	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/metrics"
)

const (
	// quotaWindow is the window Strava's short-term rate limit is counted over.
	quotaWindow = 15 * time.Minute

	defaultMaxRetries     = 3
	defaultRetryBaseDelay = time.Second
	maxErrorBodyBytes     = 4096
)

// Client talks to the Strava OAuth and v3 REST endpoints.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	limiter      *rate.Limiter
	breaker      *circuitbreaker.Breaker

	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates a Client from the Strava configuration.
func NewClient(cfg *config.StravaConfig) *Client {
	perRequest := quotaWindow / time.Duration(max(cfg.RateLimit, 1))
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   &http.Client{Timeout: timeout},
		limiter:      rate.NewLimiter(rate.Every(perRequest), max(cfg.RateLimitBurst, 1)),
		breaker: circuitbreaker.New("strava-api", circuitbreaker.Settings{
			// Client errors are answers, not outages.
			IsSuccessful: func(err error) bool { return err == nil || IsClientError(err) },
		}),
		maxRetries:     defaultMaxRetries,
		retryBaseDelay: defaultRetryBaseDelay,
	}
}

// AuthorizeURL returns the Strava consent page URL for state.
func (c *Client) AuthorizeURL(state, redirectURI, scope string) string {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("approval_prompt", "auto")
	q.Set("scope", scope)
	q.Set("state", state)
	return c.baseURL + "/oauth/authorize?" + q.Encode()
}

// ExchangeCode trades an authorization code for tokens and the athlete.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")

	var tok TokenResponse
	err := c.call(ctx, requestConfig{
		endpoint: "token",
		method:   http.MethodPost,
		path:     "/oauth/token",
		form:     form,
	}, &tok)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return &tok, nil
}

// RefreshToken obtains a new token pair. Strava may rotate the refresh token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("refresh_token", refreshToken)
	form.Set("grant_type", "refresh_token")

	var tok TokenResponse
	err := c.call(ctx, requestConfig{
		endpoint: "token",
		method:   http.MethodPost,
		path:     "/oauth/token",
		form:     form,
	}, &tok)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	return &tok, nil
}

// Deauthorize revokes the application's access for the token's athlete.
func (c *Client) Deauthorize(ctx context.Context, accessToken string) error {
	form := url.Values{}
	form.Set("access_token", accessToken)

	err := c.call(ctx, requestConfig{
		endpoint: "deauthorize",
		method:   http.MethodPost,
		path:     "/oauth/deauthorize",
		token:    accessToken,
		form:     form,
	}, nil)
	if err != nil {
		return fmt.Errorf("deauthorize: %w", err)
	}
	return nil
}

// GetAthlete returns the authenticated athlete.
func (c *Client) GetAthlete(ctx context.Context, accessToken string) (*Athlete, error) {
	var a Athlete
	err := c.call(ctx, requestConfig{
		endpoint: "athlete",
		method:   http.MethodGet,
		path:     "/api/v3/athlete",
		token:    accessToken,
	}, &a)
	if err != nil {
		return nil, fmt.Errorf("get athlete: %w", err)
	}
	return &a, nil
}

// ListActivities returns one page of the athlete's activities.
func (c *Client) ListActivities(ctx context.Context, accessToken string, opts ListOptions) ([]SummaryActivity, error) {
	q := url.Values{}
	if !opts.After.IsZero() {
		q.Set("after", strconv.FormatInt(opts.After.Unix(), 10))
	}
	if !opts.Before.IsZero() {
		q.Set("before", strconv.FormatInt(opts.Before.Unix(), 10))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(opts.PerPage))
	}

	var raw []json.RawMessage
	err := c.call(ctx, requestConfig{
		endpoint: "activities",
		method:   http.MethodGet,
		path:     "/api/v3/athlete/activities",
		token:    accessToken,
		query:    q,
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	activities := make([]SummaryActivity, 0, len(raw))
	for _, msg := range raw {
		var a SummaryActivity
		if err := json.Unmarshal(msg, &a); err != nil {
			return nil, fmt.Errorf("decode strava activity: %w", err)
		}
		if err := json.Unmarshal(msg, &a.Raw); err != nil {
			return nil, fmt.Errorf("decode strava activity payload: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, nil
}

// requestConfig describes one Strava API request.
type requestConfig struct {
	endpoint string // metrics label
	method   string
	path     string
	token    string
	query    url.Values
	form     url.Values
}

// call runs the request through the circuit breaker and decodes into out.
func (c *Client) call(ctx context.Context, rc requestConfig, out interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.doRequestWithRateLimit(ctx, rc, out)
	})
	return err
}

// doRequestWithRateLimit waits for the token bucket, then performs the request,
// retrying 429 responses with exponential backoff or the Retry-After header.
func (c *Client) doRequestWithRateLimit(ctx context.Context, rc requestConfig, out interface{}) error {
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("strava rate limiter: %w", err)
		}

		req, err := c.newRequest(ctx, rc)
		if err != nil {
			return err
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.RecordStravaRequest(rc.endpoint, 0, time.Since(start))
			return fmt.Errorf("strava request failed: %w", err)
		}
		metrics.RecordStravaRequest(rc.endpoint, resp.StatusCode, time.Since(start))

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()

			if attempt == c.maxRetries {
				return &APIError{
					StatusCode: resp.StatusCode,
					Endpoint:   rc.endpoint,
					Message:    fmt.Sprintf("rate limit exceeded after %d retries", c.maxRetries),
				}
			}

			delay := c.retryBaseDelay * time.Duration(1<<attempt)
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if secs, convErr := strconv.Atoi(retryAfter); convErr == nil && secs >= 0 {
					delay = time.Duration(secs) * time.Second
				}
			}

			logging.Warn().
				Str("endpoint", rc.endpoint).
				Int("attempt", attempt+1).
				Dur("retry_after", delay).
				Msg("Strava rate limit hit, retrying")

			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during strava rate limit backoff: %w", ctx.Err())
			}
		}

		return decodeResponse(resp, rc.endpoint, out)
	}

	return fmt.Errorf("strava %s: exhausted retries", rc.endpoint)
}

func (c *Client) newRequest(ctx context.Context, rc requestConfig) (*http.Request, error) {
	target := c.baseURL + rc.path
	if len(rc.query) > 0 {
		target += "?" + rc.query.Encode()
	}

	var body io.Reader
	if rc.form != nil {
		body = strings.NewReader(rc.form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, rc.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build strava request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if rc.form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if rc.token != "" {
		req.Header.Set("Authorization", "Bearer "+rc.token)
	}
	return req, nil
}

// stravaFault is Strava's error body.
type stravaFault struct {
	Message string `json:"message"`
}

func decodeResponse(resp *http.Response, endpoint string, out interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		msg := http.StatusText(resp.StatusCode)
		var fault stravaFault
		if json.Unmarshal(body, &fault) == nil && fault.Message != "" {
			msg = fault.Message
		}
		return &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint, Message: msg}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode strava %s response: %w", endpoint, err)
	}
	return nil
}
