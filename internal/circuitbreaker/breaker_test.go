// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/aeropacer/internal/metrics"
)

var errBoom = errors.New("boom")

func TestBreaker_OpensAfterFailureRatio(t *testing.T) {
	b := New("test-open", Settings{MinRequests: 4, Timeout: time.Hour})

	for i := 0; i < 4; i++ {
		if _, err := b.Execute(func() (interface{}, error) { return nil, errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("call %d: err = %v, want errBoom", i, err)
		}
	}
	if b.State() != "open" {
		t.Fatalf("State() = %s, want open", b.State())
	}

	_, err := b.Execute(func() (interface{}, error) { return "never", nil })
	if !IsOpen(err) {
		t.Errorf("Execute() on open breaker = %v, want open-state rejection", err)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("test-open")); got != 2 {
		t.Errorf("state gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues("test-open", "rejected")); got != 1 {
		t.Errorf("rejected counter = %v, want 1", got)
	}
}

func TestBreaker_IsSuccessfulKeepsClosed(t *testing.T) {
	errClient := errors.New("bad request")
	b := New("test-client-errors", Settings{
		MinRequests:  2,
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, errClient) },
	})

	for i := 0; i < 10; i++ {
		_, _ = b.Execute(func() (interface{}, error) { return nil, errClient })
	}
	if b.State() != "closed" {
		t.Errorf("State() = %s, want closed", b.State())
	}
}

func TestCall_Typed(t *testing.T) {
	b := New("test-typed", Settings{})

	n, err := Call(b, func() (int, error) { return 42, nil })
	if err != nil || n != 42 {
		t.Errorf("Call() = %d, %v; want 42", n, err)
	}

	type payload struct{ Name string }
	p, err := Call(b, func() (*payload, error) { return nil, nil })
	if err != nil || p != nil {
		t.Errorf("Call() nil pointer = %v, %v", p, err)
	}

	_, err = Call(b, func() (string, error) { return "", errBoom })
	if !errors.Is(err, errBoom) {
		t.Errorf("Call() error = %v, want errBoom", err)
	}
}

func TestCastResult_WrongType(t *testing.T) {
	if _, err := castResult[int]("not an int", nil); err == nil {
		t.Error("castResult() expected type error")
	}
}
