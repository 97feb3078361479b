// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/aeropacer/internal/config"
)

const testSecret = "this_is_a_very_long_secret_key_with_32_plus_characters"

func newTestJWTManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret, SessionTimeout: time.Hour})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return m
}

func TestNewJWTManager(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.SecurityConfig
		wantErr bool
	}{
		{"valid secret", &config.SecurityConfig{JWTSecret: testSecret, SessionTimeout: 24 * time.Hour}, false},
		{"empty secret", &config.SecurityConfig{SessionTimeout: 24 * time.Hour}, true},
		{"short secret", &config.SecurityConfig{JWTSecret: "short", SessionTimeout: 24 * time.Hour}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, err := NewJWTManager(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewJWTManager() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && manager == nil {
				t.Error("NewJWTManager() returned nil manager")
			}
		})
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := newTestJWTManager(t)
	userID := uuid.New()

	token, expiresAt, err := m.GenerateToken(userID, "jane@example.org", "admin")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if time.Until(expiresAt) <= 59*time.Minute {
		t.Errorf("expiresAt = %v, want about one hour from now", expiresAt)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != userID.String() || claims.Subject != userID.String() {
		t.Errorf("UserID = %q, Subject = %q, want %s", claims.UserID, claims.Subject, userID)
	}
	if claims.Email != "jane@example.org" || !claims.IsAdmin() {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Issuer != Issuer || claims.ID == "" {
		t.Errorf("Issuer = %q, ID = %q", claims.Issuer, claims.ID)
	}

	second, _, _ := m.GenerateToken(userID, "jane@example.org", "admin")
	if second == token {
		t.Error("tokens should differ by jti")
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	m := newTestJWTManager(t)
	userID := uuid.New()

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key interface{}) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("SignedString() error = %v", err)
		}
		return s
	}
	base := func() *Claims {
		now := time.Now()
		return &Claims{
			UserID: userID.String(),
			Role:   "user",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    Issuer,
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
		}
	}

	expired := base()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongIssuer := base()
	wrongIssuer.Issuer = "someone-else"

	badUser := base()
	badUser.UserID = "not-a-uuid"

	noExpiry := base()
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name       string
		token      string
		wantReason string
	}{
		{"expired", sign(expired, jwt.SigningMethodHS256, []byte(testSecret)), "expired"},
		{"wrong secret", sign(base(), jwt.SigningMethodHS256, []byte(strings.Repeat("x", 40))), "bad_signature"},
		{"wrong issuer", sign(wrongIssuer, jwt.SigningMethodHS256, []byte(testSecret)), "bad_issuer"},
		{"hs512", sign(base(), jwt.SigningMethodHS512, []byte(testSecret)), "bad_signature"},
		{"none alg", sign(base(), jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType), "bad_signature"},
		{"malformed", "not.a.jwt", "malformed"},
		{"bad user id", sign(badUser, jwt.SigningMethodHS256, []byte(testSecret)), "invalid"},
		{"no expiry", sign(noExpiry, jwt.SigningMethodHS256, []byte(testSecret)), "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ValidateToken(tt.token)
			if err == nil {
				t.Fatal("ValidateToken() expected error")
			}
			if got := rejectionReason(err); got != tt.wantReason {
				t.Errorf("rejectionReason() = %q, want %q (err: %v)", got, tt.wantReason, err)
			}
		})
	}
}
