package llm

import (
	"context"
	"testing"
	"time"
)

func TestRetrySucceedsAfterRetryableFailures(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffMultiplier: 2}
	attempts := 0
	err := Retry(context.Background(), policy, func() error {
		attempts++
		if attempts < 3 {
			return &RequestError{Kind: ErrServer, Provider: "test"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryGivesUpOnNonRetryableError(t *testing.T) {
	policy := DefaultRetryPolicy()
	attempts := 0
	err := Retry(context.Background(), policy, func() error {
		attempts++
		return &RequestError{Kind: ErrAuthentication, Provider: "test"}
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if attempts != 1 {
		t.Fatalf("expected exactly 1 attempt for a non-retryable error, got %d", attempts)
	}
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	policy := RetryPolicy{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: time.Second, BackoffMultiplier: 1}
	attempts := 0
	err := Retry(ctx, policy, func() error {
		attempts++
		return &RequestError{Kind: ErrNetwork, Provider: "test"}
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if attempts != 1 {
		t.Fatalf("expected exactly 1 attempt before the cancelled context aborted retries, got %d", attempts)
	}
}

func TestClientCompleteUnknownProvider(t *testing.T) {
	c := NewClient()
	_, err := c.Complete(context.Background(), Request{Provider: "ghost"})
	if err == nil {
		t.Fatal("expected an error for an unregistered provider")
	}
}
