package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAfterThresholdAndRecoversThroughHalfOpen(t *testing.T) {
	var transitions []string
	b := NewCircuitBreaker("football-site", CircuitBreakerConfig{
		FailureThreshold: 2,
		OpenTimeout:      5 * time.Second,
		HalfOpenMaxReq:   1,
		OnStateChange: func(name string, from, to CircuitState) {
			transitions = append(transitions, name+":"+string(from)+"->"+string(to))
		},
	})

	now := time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow in closed state: %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open trial to pass, got %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected second half-open trial to be rejected, got %v", err)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful half-open trial, got %s", state)
	}

	want := []string{
		"football-site:closed->open",
		"football-site:open->half_open",
		"football-site:half_open->closed",
	}
	if len(transitions) != len(want) {
		t.Fatalf("unexpected transitions: %v", transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transition %d: got=%s want=%s", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_ExecuteIgnoresNonTransientErrors(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker("ufc-search", CircuitBreakerConfig{FailureThreshold: 1})
	permanent := errors.New("status 404")
	transient := errors.New("timeout")
	isTransient := func(err error) bool { return errors.Is(err, transient) }

	for i := 0; i < 3; i++ {
		if err := b.Execute(func() error { return permanent }, isTransient); !errors.Is(err, permanent) {
			t.Fatalf("expected permanent error passthrough, got %v", err)
		}
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after non-transient failures, got %s", state)
	}

	_ = b.Execute(func() error { return transient }, isTransient)
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after transient failure, got %s", state)
	}
	if err := b.Execute(func() error { return nil }, isTransient); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}
