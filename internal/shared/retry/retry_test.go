package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFixedRetriesUntilSuccess(t *testing.T) {
	attempts := 0
	var notified []int
	policy := Fixed{
		Delay:   time.Millisecond,
		OnRetry: func(attempt int, _ error) { notified = append(notified, attempt) },
	}

	err := policy.Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if len(notified) != 2 || notified[0] != 1 || notified[1] != 2 {
		t.Fatalf("unexpected retry notifications: %v", notified)
	}
}

func TestFixedStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("row missing")
	attempts := 0
	policy := Fixed{
		Delay:     time.Millisecond,
		Retryable: func(err error) bool { return !errors.Is(err, permanent) },
	}

	err := policy.Do(context.Background(), func(context.Context) error {
		attempts++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestFixedStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	transient := errors.New("timeout")
	attempts := 0
	policy := Fixed{
		Delay: time.Hour,
		OnRetry: func(int, error) {
			cancel()
		},
	}

	err := policy.Do(ctx, func(context.Context) error {
		attempts++
		return transient
	})
	if !errors.Is(err, transient) {
		t.Fatalf("expected last error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}
