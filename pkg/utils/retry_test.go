package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func quickRetryConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      10 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), quickRetryConfig(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	wantErr := errors.New("permanent")
	calls := 0
	err := Retry(context.Background(), quickRetryConfig(3), func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, quickRetryConfig(5), func() error {
		calls++
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single call before the cancellation check, got %d", calls)
	}
}

func TestRetryWithResult(t *testing.T) {
	calls := 0
	v, err := RetryWithResult(context.Background(), quickRetryConfig(3), func() (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil || v != "ok" {
		t.Errorf("expected (ok, nil), got (%q, %v)", v, err)
	}

	_, err = RetryWithResult(context.Background(), quickRetryConfig(2), func() (int, error) {
		return 0, errors.New("permanent")
	})
	if err == nil {
		t.Error("expected error after exhausting attempts")
	}
}

func TestCalculateBackoff(t *testing.T) {
	initial := 100 * time.Millisecond
	max := time.Second

	if got := CalculateBackoff(0, initial, max, 2.0); got != initial {
		t.Errorf("attempt 0: got %v", got)
	}
	if got := CalculateBackoff(2, initial, max, 2.0); got != 400*time.Millisecond {
		t.Errorf("attempt 2: got %v", got)
	}
	if got := CalculateBackoff(10, initial, max, 2.0); got != max {
		t.Errorf("expected cap at max delay, got %v", got)
	}
}
