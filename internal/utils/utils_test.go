package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitForReturnsImmediatelyForZeroDuration(t *testing.T) {
	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestWaitForHonoursCancelledContext(t *testing.T) {
	originalSleep := sleep
	block := make(chan struct{})
	sleep = func(time.Duration) { <-block }
	defer func() {
		close(block)
		sleep = originalSleep
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitFor(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2025, 3, 7, 9, 5, 1, 0, time.UTC)
	if got := Timestamp(ts); got != "2025-03-07_09-05-01" {
		t.Fatalf("unexpected timestamp: %q", got)
	}
}
