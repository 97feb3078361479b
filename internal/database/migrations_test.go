// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package database

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/aeropacer/internal/models"
)

func TestSchemaMigrationsAreValid(t *testing.T) {
	if err := validateMigrations(schemaMigrations); err != nil {
		t.Fatalf("validateMigrations(schemaMigrations) = %v", err)
	}
	for _, m := range schemaMigrations {
		if m.Down == "" {
			t.Errorf("migration %q has no down SQL", m.Name)
		}
	}
}

func TestSchemaMigrationsCreateEveryTable(t *testing.T) {
	var all strings.Builder
	for _, m := range schemaMigrations {
		all.WriteString(m.Up)
	}
	for _, table := range []string{"users", "activities", "auth_tokens", "analytics_events"} {
		if !strings.Contains(all.String(), "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("no migration creates table %s", table)
		}
	}
	if !strings.Contains(all.String(), "ON DELETE SET NULL") {
		t.Error("analytics_events.user_id should be ON DELETE SET NULL")
	}
}

func TestValidateMigrations(t *testing.T) {
	tests := []struct {
		name    string
		list    []Migration
		wantErr string
	}{
		{"empty", nil, ""},
		{"ordered", []Migration{
			{Timestamp: 1, Name: "a", Up: "SELECT 1"},
			{Timestamp: 2, Name: "b", Up: "SELECT 1"},
		}, ""},
		{"missing name", []Migration{{Timestamp: 1, Up: "SELECT 1"}}, "no name"},
		{"duplicate name", []Migration{
			{Timestamp: 1, Name: "a", Up: "SELECT 1"},
			{Timestamp: 2, Name: "a", Up: "SELECT 1"},
		}, "duplicate"},
		{"out of order", []Migration{
			{Timestamp: 2, Name: "a", Up: "SELECT 1"},
			{Timestamp: 1, Name: "b", Up: "SELECT 1"},
		}, "not after"},
		{"equal timestamps", []Migration{
			{Timestamp: 5, Name: "a", Up: "SELECT 1"},
			{Timestamp: 5, Name: "b", Up: "SELECT 1"},
		}, "not after"},
		{"empty up", []Migration{{Timestamp: 1, Name: "a"}}, "no up SQL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateMigrations(tt.list)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validateMigrations() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validateMigrations() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMigrateRejectsInvalidListBeforeConnecting(t *testing.T) {
	db := &DB{}
	_, err := db.migrate(context.Background(), []Migration{{Timestamp: 1, Name: ""}})
	if err == nil || !strings.Contains(err.Error(), "invalid migrations") {
		t.Errorf("migrate() = %v, want invalid migrations error", err)
	}
}

func TestMergeStatus(t *testing.T) {
	list := []Migration{
		{Timestamp: 1, Name: "first"},
		{Timestamp: 2, Name: "second"},
	}
	at := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	applied := []models.Migration{{ID: 1, Timestamp: 1, Name: "first", AppliedAt: at}}

	got := mergeStatus(list, applied)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if !got[0].Applied || got[0].AppliedAt == nil || !got[0].AppliedAt.Equal(at) {
		t.Errorf("first = %+v, want applied at %v", got[0], at)
	}
	if got[1].Applied || got[1].AppliedAt != nil {
		t.Errorf("second = %+v, want pending", got[1])
	}
}

func TestEnsureContext(t *testing.T) {
	t.Run("adds deadline", func(t *testing.T) {
		ctx, cancel := ensureContext(context.Background())
		defer cancel()
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected a deadline")
		}
	})

	t.Run("keeps existing deadline", func(t *testing.T) {
		want := time.Now().Add(time.Second)
		parent, parentCancel := context.WithDeadline(context.Background(), want)
		defer parentCancel()

		ctx, cancel := ensureContext(parent)
		defer cancel()
		got, _ := ctx.Deadline()
		if !got.Equal(want) {
			t.Errorf("deadline = %v, want %v", got, want)
		}
	})
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Jane.Runner@Example.ORG "); got != "jane.runner@example.org" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}
