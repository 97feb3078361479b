// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/aeropacer/internal/websocket"
)

func startTestHub(t *testing.T) *websocket.Hub {
	t.Helper()
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func TestWebSocket_DeliversToUser(t *testing.T) {
	hub := startTestHub(t)
	e := newTestEnv(t, func(s *Services) { s.Hub = hub })
	srv := httptest.NewServer(e.server)
	defer srv.Close()

	tok, userID := e.token("user")
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?token=" + tok
	header := http.Header{"Origin": []string{testFrontend}}

	conn, resp, err := gorillaws.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("Dial() error = %v (resp %v)", err, resp)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.UserClientCount(userID) != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.SendToUser(userID, websocket.MessageTypeSyncCompleted, map[string]int{"created": 2})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if !strings.Contains(string(msg), websocket.MessageTypeSyncCompleted) {
		t.Errorf("message = %s", msg)
	}
}

func TestWebSocket_RejectsForeignOrigin(t *testing.T) {
	hub := startTestHub(t)
	e := newTestEnv(t, func(s *Services) { s.Hub = hub })
	srv := httptest.NewServer(e.server)
	defer srv.Close()

	tok, _ := e.token("user")
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?token=" + tok

	for _, origin := range []string{"", "https://evil.example"} {
		header := http.Header{}
		if origin != "" {
			header.Set("Origin", origin)
		}
		_, resp, err := gorillaws.DefaultDialer.Dial(wsURL, header)
		if err == nil {
			t.Fatalf("origin %q: dial succeeded", origin)
		}
		if resp == nil || resp.StatusCode != http.StatusForbidden {
			t.Fatalf("origin %q: response = %v, want 403", origin, resp)
		}
	}
}

func TestWebSocket_HubDisabled(t *testing.T) {
	e := newTestEnv(t, nil)
	tok, _ := e.token("user")

	rec := e.do(http.MethodGet, "/api/v1/ws", "", tok)
	expectError(t, rec, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
}
