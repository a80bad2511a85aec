//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExponentialRetrierSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	r := NewExponentialRetrier(WithBackOffOptions(
		WithInitialInterval(time.Millisecond),
		WithMaxInterval(5*time.Millisecond),
	))

	err := r.RetryWithBackoff(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RetryWithBackoff: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestExponentialRetrierGivesUpAfterMaxElapsedTime(t *testing.T) {
	attempts := 0
	r := NewExponentialRetrier(WithBackOffOptions(
		WithInitialInterval(time.Millisecond),
		WithMaxElapsedTime(20 * time.Millisecond),
	))

	err := r.RetryWithBackoff(context.Background(), func() error {
		attempts++
		return errors.New("permanent")
	})
	if err == nil {
		t.Fatal("expected error after max elapsed time, got nil")
	}
	if attempts < 2 {
		t.Fatalf("expected at least 2 attempts before giving up, got %d", attempts)
	}
}

func TestExponentialRetrierRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewExponentialRetrier()
	err := r.RetryWithBackoff(ctx, func() error {
		return errors.New("never reached past first attempt")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestTypedRetrierReturnsValueOnSuccess(t *testing.T) {
	tr := NewTypedRetrier[int](NewExponentialRetrier(WithBackOffOptions(
		WithInitialInterval(time.Millisecond),
	)))

	attempts := 0
	got, err := tr.RetryWithBackoff(context.Background(), func() (int, error) {
		attempts++
		if attempts < 2 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("RetryWithBackoff: %v", err)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}
