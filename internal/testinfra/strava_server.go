// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package testinfra

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

// Defaults for MockStravaServer.
const (
	MockStravaClientID     = "12345"
	MockStravaClientSecret = "strava-client-secret"
	MockStravaValidCode    = "valid-auth-code"
	MockStravaAthleteID    = int64(987654)
)

// RequestCapture is one request received by a mock server.
type RequestCapture struct {
	Method  string
	Path    string
	Query   string
	Headers http.Header
	Body    []byte
}

type mockActivity struct {
	start   time.Time
	payload map[string]interface{}
}

// MockStravaServer fakes the Strava OAuth and activity endpoints.
type MockStravaServer struct {
	Server *httptest.Server

	// TokenLifetime controls expires_at on issued tokens (default 6h).
	TokenLifetime time.Duration
	// RetryAfter is the Retry-After header sent with 429 responses (default "1").
	RetryAfter string
	// OmitAthlete drops the athlete summary from code exchange responses.
	OmitAthlete bool

	mu            sync.Mutex
	captures      []RequestCapture
	activities    []mockActivity
	accessTokens  map[string]bool
	refreshTokens map[string]bool
	tokenSeq      int
	rateLimitNext int
	failNext      int
}

// NewMockStravaServer starts a fake Strava API. It is closed on test cleanup.
func NewMockStravaServer(t *testing.T) *MockStravaServer {
	t.Helper()

	m := &MockStravaServer{
		TokenLifetime: 6 * time.Hour,
		RetryAfter:    "1",
		accessTokens:  make(map[string]bool),
		refreshTokens: make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", m.handleToken)
	mux.HandleFunc("POST /oauth/deauthorize", m.handleDeauthorize)
	mux.HandleFunc("GET /api/v3/athlete", m.requireToken(m.handleAthlete))
	mux.HandleFunc("GET /api/v3/athlete/activities", m.requireToken(m.handleActivities))

	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		m.mu.Lock()
		m.captures = append(m.captures, RequestCapture{
			Method:  r.Method,
			Path:    r.URL.Path,
			Query:   r.URL.RawQuery,
			Headers: r.Header.Clone(),
			Body:    body,
		})
		limited := m.rateLimitNext > 0
		if limited {
			m.rateLimitNext--
		}
		failed := !limited && m.failNext > 0
		if failed {
			m.failNext--
		}
		m.mu.Unlock()

		switch {
		case limited:
			w.Header().Set("Retry-After", m.RetryAfter)
			writeJSON(w, http.StatusTooManyRequests, stravaFault("Rate Limit Exceeded"))
		case failed:
			writeJSON(w, http.StatusInternalServerError, stravaFault("Internal Server Error"))
		default:
			mux.ServeHTTP(w, r)
		}
	}))
	t.Cleanup(m.Server.Close)

	return m
}

// URL returns the server base URL.
func (m *MockStravaServer) URL() string {
	return m.Server.URL
}

// AddActivities appends SummaryActivity payloads built with StravaActivity.
func (m *MockStravaServer) AddActivities(payloads ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range payloads {
		start, _ := time.Parse(time.RFC3339, p["start_date"].(string))
		m.activities = append(m.activities, mockActivity{start: start, payload: p})
	}
}

// RateLimitNext makes the next n requests fail with 429.
func (m *MockStravaServer) RateLimitNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimitNext = n
}

// FailNext makes the next n requests fail with 500.
func (m *MockStravaServer) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = n
}

// IssueTokens registers a token pair the server will accept, for seeding
// stored credentials without an OAuth round trip.
func (m *MockStravaServer) IssueTokens() (access, refresh string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.issueLocked()
}

func (m *MockStravaServer) issueLocked() (access, refresh string) {
	m.tokenSeq++
	access = fmt.Sprintf("access-%d", m.tokenSeq)
	refresh = fmt.Sprintf("refresh-%d", m.tokenSeq)
	m.accessTokens[access] = true
	m.refreshTokens[refresh] = true
	return access, refresh
}

// Captures returns a copy of all received requests.
func (m *MockStravaServer) Captures() []RequestCapture {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RequestCapture, len(m.captures))
	copy(out, m.captures)
	return out
}

// CountRequests returns how many requests hit path.
func (m *MockStravaServer) CountRequests(path string) int {
	n := 0
	for _, c := range m.Captures() {
		if c.Path == path {
			n++
		}
	}
	return n
}

func (m *MockStravaServer) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, stravaFault("Bad Request"))
		return
	}
	if r.PostForm.Get("client_id") != MockStravaClientID || r.PostForm.Get("client_secret") != MockStravaClientSecret {
		writeJSON(w, http.StatusUnauthorized, stravaFault("Authorization Error"))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		if r.PostForm.Get("code") != MockStravaValidCode {
			writeJSON(w, http.StatusBadRequest, stravaFault("Bad Request"))
			return
		}
		access, refresh := m.issueLocked()
		resp := m.tokenResponse(access, refresh)
		if !m.OmitAthlete {
			resp["athlete"] = mockAthlete()
		}
		writeJSON(w, http.StatusOK, resp)
	case "refresh_token":
		old := r.PostForm.Get("refresh_token")
		if !m.refreshTokens[old] {
			writeJSON(w, http.StatusBadRequest, stravaFault("Bad Request"))
			return
		}
		delete(m.refreshTokens, old)
		access, refresh := m.issueLocked()
		writeJSON(w, http.StatusOK, m.tokenResponse(access, refresh))
	default:
		writeJSON(w, http.StatusBadRequest, stravaFault("Bad Request"))
	}
}

func (m *MockStravaServer) tokenResponse(access, refresh string) map[string]interface{} {
	return map[string]interface{}{
		"token_type":    "Bearer",
		"access_token":  access,
		"refresh_token": refresh,
		"expires_at":    time.Now().Add(m.TokenLifetime).Unix(),
		"expires_in":    int(m.TokenLifetime.Seconds()),
	}
}

func (m *MockStravaServer) handleDeauthorize(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		_ = r.ParseForm()
		token = r.PostForm.Get("access_token")
	}
	m.mu.Lock()
	delete(m.accessTokens, token)
	m.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

func (m *MockStravaServer) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		m.mu.Lock()
		ok := m.accessTokens[token]
		m.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, stravaFault("Authorization Error"))
			return
		}
		next(w, r)
	}
}

func (m *MockStravaServer) handleAthlete(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, mockAthlete())
}

func mockAthlete() map[string]interface{} {
	return map[string]interface{}{
		"id":        MockStravaAthleteID,
		"username":  "jrunner",
		"firstname": "Jane",
		"lastname":  "Runner",
		"city":      "Boulder",
		"country":   "United States",
		"sex":       "F",
	}
}

func (m *MockStravaServer) handleActivities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	perPage := atoiDefault(q.Get("per_page"), 30)
	after := int64(atoiDefault(q.Get("after"), 0))
	before := int64(atoiDefault(q.Get("before"), 0))

	m.mu.Lock()
	matched := make([]mockActivity, 0, len(m.activities))
	for _, a := range m.activities {
		if after > 0 && a.start.Unix() <= after {
			continue
		}
		if before > 0 && a.start.Unix() >= before {
			continue
		}
		matched = append(matched, a)
	}
	m.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].start.Before(matched[j].start) })

	start := (page - 1) * perPage
	out := make([]map[string]interface{}, 0, perPage)
	for i := start; i < len(matched) && i < start+perPage; i++ {
		out = append(out, matched[i].payload)
	}
	writeJSON(w, http.StatusOK, out)
}

// StravaActivity builds a SummaryActivity payload in Strava's wire format
// (metres, metres per second, half-cadence for runs).
func StravaActivity(id int64, sportType string, start time.Time, distanceM float64, movingSec int) map[string]interface{} {
	speed := 0.0
	if movingSec > 0 {
		speed = distanceM / float64(movingSec)
	}
	return map[string]interface{}{
		"id":                   id,
		"name":                 fmt.Sprintf("%s %d", sportType, id),
		"type":                 sportType,
		"sport_type":           sportType,
		"start_date":           start.UTC().Format(time.RFC3339),
		"start_date_local":     start.UTC().Format(time.RFC3339),
		"timezone":             "(GMT+00:00) UTC",
		"distance":             distanceM,
		"moving_time":          movingSec,
		"elapsed_time":         movingSec + 60,
		"total_elevation_gain": 42.0,
		"average_speed":        speed,
		"max_speed":            speed * 1.4,
		"has_heartrate":        true,
		"average_heartrate":    150.0,
		"max_heartrate":        175.0,
		"average_cadence":      85.0,
		"kilojoules":           600.0,
		"start_latlng":         []float64{40.015, -105.27},
		"end_latlng":           []float64{40.02, -105.28},
		"map": map[string]interface{}{
			"id":               fmt.Sprintf("a%d", id),
			"summary_polyline": "_p~iF~ps|U_ulLnnqC_mqNvxq`@",
		},
		"athlete": map[string]interface{}{"id": MockStravaAthleteID},
	}
}

func stravaFault(message string) map[string]interface{} {
	return map[string]interface{}{
		"message": message,
		"errors":  []map[string]string{{"resource": "Application", "code": "invalid"}},
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
