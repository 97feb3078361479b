// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"", ""},
		{"short", "***"},
		{"abcd1234efgh5678", "abcd...5678"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.input); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeEmail(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"", ""},
		{"jane.runner@example.com", "ja***@example.com"},
		{"ab@example.com", "***@example.com"},
		{"not-an-email", "***"},
		{"@example.com", "***"},
	}
	for _, tt := range tests {
		if got := SanitizeEmail(tt.input); got != tt.want {
			t.Errorf("SanitizeEmail(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	if got := SanitizeError("invalid refresh token"); got != "authentication error" {
		t.Errorf("SanitizeError() = %q, want generic message", got)
	}
	if got := SanitizeError("user not found"); got != "user not found" {
		t.Errorf("SanitizeError() = %q, want passthrough", got)
	}
	long := strings.Repeat("x", 300)
	if got := SanitizeError(long); len(got) != 203 {
		t.Errorf("SanitizeError() length = %d, want truncated to 203", len(got))
	}
}

func TestSanitizeValue(t *testing.T) {
	if got := SanitizeValue("refresh_token", "abcd1234efgh5678"); got != "abcd...5678" {
		t.Errorf("SanitizeValue(refresh_token) = %q", got)
	}
	if got := SanitizeValue("contact", "jane.runner@example.com"); got != "ja***@example.com" {
		t.Errorf("SanitizeValue(email) = %q", got)
	}
	if got := SanitizeValue("path", "/api/v1/users/me"); got != "/api/v1/users/me" {
		t.Errorf("SanitizeValue(path) = %q", got)
	}
}

func TestSecurityLogger_LoginSuccess(t *testing.T) {
	var buf bytes.Buffer
	l := NewSecurityLoggerWithLogger(NewTestLogger(&buf))

	l.LogLoginSuccess("user-1", "jane.runner@example.com", "10.0.0.1", "curl/8.0")

	output := buf.String()
	for _, want := range []string{
		`"event":"login_success"`,
		`"status":"success"`,
		`"component":"auth"`,
		`"email":"ja***@example.com"`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output, got: %s", want, output)
		}
	}
	if strings.Contains(output, "jane.runner@") {
		t.Errorf("raw email leaked into log: %s", output)
	}
}

func TestSecurityLogger_LoginFailure(t *testing.T) {
	var buf bytes.Buffer
	l := NewSecurityLoggerWithLogger(NewTestLogger(&buf))

	l.LogLoginFailure("jane.runner@example.com", "10.0.0.1", "", "wrong password")

	output := buf.String()
	if !strings.Contains(output, `"level":"warn"`) {
		t.Errorf("failed events should log at warn: %s", output)
	}
	if !strings.Contains(output, `"reason":"authentication error"`) {
		t.Errorf("expected sanitized reason, got: %s", output)
	}
}

func TestSecurityLogger_StravaConnected(t *testing.T) {
	var buf bytes.Buffer
	l := NewSecurityLoggerWithLogger(NewTestLogger(&buf))

	l.LogStravaConnected("user-1", 987654, "read,activity:read_all")

	output := buf.String()
	if !strings.Contains(output, `"athlete_id":"987654"`) {
		t.Errorf("expected athlete_id, got: %s", output)
	}
	if !strings.Contains(output, `"provider":"strava"`) {
		t.Errorf("expected provider, got: %s", output)
	}
}

func TestSecurityLogger_StateRejectedMasksState(t *testing.T) {
	var buf bytes.Buffer
	l := NewSecurityLoggerWithLogger(NewTestLogger(&buf))

	l.LogOAuthStateRejected("10.0.0.1", "0123456789abcdef0123")

	output := buf.String()
	if strings.Contains(output, "0123456789abcdef0123") {
		t.Errorf("raw state leaked into log: %s", output)
	}
	if !strings.Contains(output, `"state":"0123...0123"`) {
		t.Errorf("expected masked state, got: %s", output)
	}
}
