package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySingleAttemptReturnsRawError(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 1, Logger: NewDiscardLogger()}
	boom := errors.New("boom")
	calls := 0

	err := r.Do(context.Background(), "navigate", func() error {
		calls++
		return boom
	})
	if calls != 1 {
		t.Errorf("calls = %d; want 1", calls)
	}
	if err != boom {
		t.Errorf("err = %v; want %v", err, boom)
	}
}

func TestRetryEventuallySucceeds(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: NewDiscardLogger()}
	calls := 0

	err := r.Do(context.Background(), "navigate", func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d; want 3", calls)
	}
}

func TestRetryWrapsLastError(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, Logger: NewDiscardLogger()}
	boom := errors.New("boom")

	err := r.Do(context.Background(), "navigate", func() error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("errors.Is(%v, boom) = false", err)
	}
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep on cancelled ctx = %v; want context.Canceled", err)
	}
}
