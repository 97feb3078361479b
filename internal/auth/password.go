// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/aeropacer/internal/validation"
)

// BcryptCost is the work factor for stored password hashes.
const BcryptCost = 12

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrWeakPassword wraps password policy failures.
	ErrWeakPassword = errors.New("password does not meet policy")
)

// dummyHash is compared against when the email is unknown so that login
// timing does not reveal which accounts exist.
var (
	dummyHash     []byte
	dummyHashOnce sync.Once
)

func getDummyHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("aeropacer-timing-equalizer-1"), BcryptCost)
	})
	return dummyHash
}

// HashPassword validates the password policy and returns a bcrypt hash.
func HashPassword(password string) (string, error) {
	if err := validation.CheckPassword(password); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a password with a stored hash.
// An empty hash still costs one bcrypt comparison.
func VerifyPassword(hash, password string) error {
	h := []byte(hash)
	if len(h) == 0 {
		h = getDummyHash()
	}
	if err := bcrypt.CompareHashAndPassword(h, []byte(password)); err != nil || len(hash) == 0 {
		return ErrInvalidCredentials
	}
	return nil
}
