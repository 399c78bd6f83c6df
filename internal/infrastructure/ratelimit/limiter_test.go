package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_EnforcesMinDelay(t *testing.T) {
	l := New(Config{
		RequestsPerMinute: 6000, // window effectively unbounded for this test
		MinDelay:          30 * time.Millisecond,
	})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	elapsed := time.Since(start)

	// Three calls must be separated by at least two min-delay gaps
	if elapsed < 60*time.Millisecond {
		t.Errorf("three calls completed in %v, want >= 60ms", elapsed)
	}
}

func TestLimiter_CancelledContext(t *testing.T) {
	l := New(Config{
		RequestsPerMinute: 6000,
		MinDelay:          time.Second,
	})

	ctx := context.Background()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}

	cancelled, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(cancelled); err == nil {
		t.Error("Wait() with expired context returned nil, want error")
	}
}

func TestLimiter_Defaults(t *testing.T) {
	l := New(Config{})
	if l.minDelay != 200*time.Millisecond {
		t.Errorf("minDelay = %v, want 200ms default", l.minDelay)
	}
}

func TestLimiter_JitterStaysWithinBounds(t *testing.T) {
	l := New(Config{
		RequestsPerMinute: 6000,
		MinDelay:          10 * time.Millisecond,
		Jitter:            20 * time.Millisecond,
	})
	ctx := context.Background()

	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	start := time.Now()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	gap := time.Since(start)

	if gap > 100*time.Millisecond {
		t.Errorf("gap = %v, want <= min delay + jitter with scheduling slack", gap)
	}
}
