// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 == nil {
		t.Fatal("GetValidator() should not return nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,password"`
	FirstName string `json:"first_name" validate:"omitempty,max=100"`
}

type preferencesRequest struct {
	Units    *string  `json:"units" validate:"omitempty,oneof=metric imperial"`
	Goal     *float64 `json:"weekly_goal_km" validate:"omitempty,gte=0,lte=1000"`
	Timezone string   `json:"timezone" validate:"timezone"`
}

type trackRequest struct {
	EventName string   `json:"event_name" validate:"required,event_name"`
	Tags      []string `json:"tags" validate:"max=2"`
}

func TestValidateStruct_Valid(t *testing.T) {
	units := "imperial"
	tests := []struct {
		name  string
		input interface{}
	}{
		{"register", &registerRequest{Email: "jane@example.com", Password: "tempo2run"}},
		{"preferences", &preferencesRequest{Units: &units, Timezone: "Europe/Berlin"}},
		{"preferences empty tz", &preferencesRequest{}},
		{"track", &trackRequest{EventName: "page_view"}},
		{"track namespaced", &trackRequest{EventName: "strava:sync.completed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(tt.input); err != nil {
				t.Errorf("ValidateStruct() unexpected error: %v", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	units := "furlongs"
	goal := -1.0
	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantMsg   string
	}{
		{"missing email", &registerRequest{Password: "tempo2run"}, "email", "email is required"},
		{"bad email", &registerRequest{Email: "jane", Password: "tempo2run"}, "email", "valid email"},
		{"short password", &registerRequest{Email: "jane@example.com", Password: "a1"}, "password", "8-128"},
		{"password without digit", &registerRequest{Email: "jane@example.com", Password: "longpassword"}, "password", "letter and a digit"},
		{"bad units", &preferencesRequest{Units: &units}, "units", "one of: metric imperial"},
		{"negative goal", &preferencesRequest{Goal: &goal}, "weekly_goal_km", "greater than or equal to 0"},
		{"bad timezone", &preferencesRequest{Timezone: "Mars/Olympus"}, "timezone", "IANA"},
		{"uppercase event", &trackRequest{EventName: "PageView"}, "event_name", "lowercase"},
		{"too many tags", &trackRequest{EventName: "x", Tags: []string{"a", "b", "c"}}, "tags", "at most 2 items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() expected error, got nil")
			}
			first := err.Errors()[0]
			if first.Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", first.Field(), tt.wantField)
			}
			if !strings.Contains(first.Error(), tt.wantMsg) {
				t.Errorf("Error() = %q, want containing %q", first.Error(), tt.wantMsg)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		err := ValidateStruct(&registerRequest{Email: "jane@example.com"})
		apiErr := err.ToAPIError()
		if apiErr.Code != "VALIDATION_ERROR" {
			t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
		}
		if apiErr.Details["field"] != "password" {
			t.Errorf("Details[field] = %v, want password", apiErr.Details["field"])
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		err := ValidateStruct(&registerRequest{})
		apiErr := err.ToAPIError()
		fields, ok := apiErr.Details["fields"].([]map[string]interface{})
		if !ok || len(fields) != 2 {
			t.Fatalf("Details[fields] = %v, want 2 entries", apiErr.Details["fields"])
		}
		if !strings.Contains(apiErr.Message, "; ") {
			t.Errorf("Message = %q, want joined messages", apiErr.Message)
		}
	})

	t.Run("empty", func(t *testing.T) {
		apiErr := (&RequestValidationError{}).ToAPIError()
		if apiErr.Message != "Validation failed" {
			t.Errorf("Message = %q", apiErr.Message)
		}
	})
}

func TestNewError(t *testing.T) {
	err := NewError("resting_heart_rate", "ltfield", "resting_heart_rate must be less than max_heart_rate")
	if err.Error() != "resting_heart_rate must be less than max_heart_rate" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.ToAPIError().Details["field"] != "resting_heart_rate" {
		t.Error("expected field detail")
	}
}

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"tempo2run", false},
		{"Ünïcode99", false},
		{"short1", true},
		{"12345678", true},
		{"abcdefgh", true},
		{strings.Repeat("a1", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			if err := CheckPassword(tt.password); (err != nil) != tt.wantErr {
				t.Errorf("CheckPassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestValidEventName(t *testing.T) {
	valid := []string{"page_view", "activity.created", "strava:connected", "a-b"}
	invalid := []string{"", "Page", "has space", strings.Repeat("a", 101), "emoji🏃"}

	for _, name := range valid {
		if !ValidEventName(name) {
			t.Errorf("ValidEventName(%q) = false, want true", name)
		}
	}
	for _, name := range invalid {
		if ValidEventName(name) {
			t.Errorf("ValidEventName(%q) = true, want false", name)
		}
	}
}
