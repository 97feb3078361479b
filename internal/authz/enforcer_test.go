// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package authz

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEnforcer_EmbeddedPolicy(t *testing.T) {
	e := newTestEnforcer(t)

	tests := []struct {
		role   string
		object string
		action string
		want   bool
	}{
		{"user", "/api/v1/activities", "read", true},
		{"user", "/api/v1/activities/8a1c", "delete", true},
		{"user", "/api/v1/activities/stats", "read", true},
		{"user", "/api/v1/users/profile", "write", true},
		{"user", "/api/v1/strava/disconnect", "delete", true},
		{"user", "/api/v1/ml/fatigue", "read", true},
		{"user", "/api/v1/ml/fatigue", "write", false},
		{"user", "/api/v1/analytics/events", "write", true},
		{"user", "/api/v1/admin/analytics/summary", "read", false},
		{"user", "/api/v1/admin/strava/sync-all", "write", false},
		{"admin", "/api/v1/admin/analytics/summary", "read", true},
		{"admin", "/api/v1/admin/strava/sync-all", "write", true},
		{"admin", "/api/v1/activities", "write", true},
		{"guest", "/api/v1/activities", "read", false},
	}

	for _, tt := range tests {
		t.Run(tt.role+" "+tt.action+" "+tt.object, func(t *testing.T) {
			got, err := e.Enforce(tt.role, tt.object, tt.action)
			if err != nil {
				t.Fatalf("Enforce() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce(%s, %s, %s) = %v, want %v", tt.role, tt.object, tt.action, got, tt.want)
			}
		})
	}
}

func TestEnforcer_AdminInheritsUser(t *testing.T) {
	e := newTestEnforcer(t)
	roles, err := e.GetRolesForUser("admin")
	if err != nil {
		t.Fatalf("GetRolesForUser() error = %v", err)
	}
	if len(roles) != 1 || roles[0] != "user" {
		t.Errorf("GetRolesForUser(admin) = %v, want [user]", roles)
	}
}

func TestEnforcer_EnforceRoleDefault(t *testing.T) {
	e := newTestEnforcer(t)

	allowed, err := e.EnforceRole("", "/api/v1/activities", "read")
	if err != nil || !allowed {
		t.Errorf("EnforceRole(empty) = %v, %v; want default role allowed", allowed, err)
	}

	e.config.DefaultRole = ""
	e.clearCache()
	allowed, _ = e.EnforceRole("", "/api/v1/activities", "read")
	if allowed {
		t.Error("EnforceRole(empty) allowed without default role")
	}
}

func TestEnforcer_PolicyChangesClearCache(t *testing.T) {
	e := newTestEnforcer(t)

	allowed, _ := e.Enforce("user", "/api/v1/reports", "read")
	if allowed {
		t.Fatal("unexpected allow before policy added")
	}
	if e.cache.len() != 1 {
		t.Fatalf("cache len = %d, want 1", e.cache.len())
	}

	if _, err := e.AddPolicy("user", "/api/v1/reports", "read"); err != nil {
		t.Fatalf("AddPolicy() error = %v", err)
	}
	if allowed, _ := e.Enforce("user", "/api/v1/reports", "read"); !allowed {
		t.Error("cached deny survived AddPolicy")
	}

	if _, err := e.RemovePolicy("user", "/api/v1/reports", "read"); err != nil {
		t.Fatalf("RemovePolicy() error = %v", err)
	}
	if allowed, _ := e.Enforce("user", "/api/v1/reports", "read"); allowed {
		t.Error("cached allow survived RemovePolicy")
	}
}

func TestEnforcer_CacheDisabled(t *testing.T) {
	e, err := NewEnforcer(&EnforcerConfig{DefaultRole: "user"})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	defer e.Close()
	if e.cache != nil {
		t.Error("cache created with zero TTL")
	}
	if allowed, _ := e.Enforce("user", "/api/v1/ws", "read"); !allowed {
		t.Error("Enforce() without cache denied websocket read")
	}
}

func TestEnforcer_FilePolicy(t *testing.T) {
	dir := t.TempDir()
	policyPath := filepath.Join(dir, "policy.csv")
	policy := "p, coach, /api/v1/activities*, read\ng, headcoach, coach\n"
	if err := os.WriteFile(policyPath, []byte(policy), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	e, err := NewEnforcer(&EnforcerConfig{PolicyPath: policyPath, CacheTTL: time.Minute})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	defer e.Close()

	if allowed, _ := e.Enforce("headcoach", "/api/v1/activities/1", "read"); !allowed {
		t.Error("inherited file policy not applied")
	}
	if allowed, _ := e.Enforce("user", "/api/v1/activities", "read"); allowed {
		t.Error("embedded policy leaked into file policy enforcer")
	}

	if err := os.WriteFile(policyPath, []byte(policy+"p, user, /api/v1/activities*, read\n"), 0o600); err != nil {
		t.Fatalf("rewrite policy: %v", err)
	}
	if err := e.LoadPolicy(); err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}
	if allowed, _ := e.Enforce("user", "/api/v1/activities", "read"); !allowed {
		t.Error("reloaded policy not applied")
	}
}

func TestEnforcer_MissingFiles(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	if _, err := NewEnforcer(&EnforcerConfig{ModelPath: missing}); err == nil {
		t.Error("NewEnforcer() with missing model expected error")
	}
	if _, err := NewEnforcer(&EnforcerConfig{PolicyPath: missing}); err == nil {
		t.Error("NewEnforcer() with missing policy expected error")
	}
}

func TestEnforcer_LoadPolicyEmbedded(t *testing.T) {
	if err := newTestEnforcer(t).LoadPolicy(); err != ErrNoAdapter {
		t.Errorf("LoadPolicy() = %v, want ErrNoAdapter", err)
	}
}

func TestLoadEmbeddedPolicy_Malformed(t *testing.T) {
	e := newTestEnforcer(t)
	if err := loadEmbeddedPolicy(e.enforcer, "p, user, /only-two"); err == nil {
		t.Error("loadEmbeddedPolicy() expected error for short line")
	}
}
