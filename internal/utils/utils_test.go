package utils

import (
	"context"
	"testing"
	"time"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "returns empty when limit non-positive",
			input:  "hello world",
			limit:  0,
			expect: "",
		},
		{
			name:   "shorter than limit",
			input:  "hello",
			limit:  10,
			expect: "hello",
		},
		{
			name:   "truncates and adds ellipsis",
			input:  "hello world",
			limit:  5,
			expect: "hello...",
		},
		{
			name:   "trims surrounding whitespace",
			input:  "  spaced  ",
			limit:  5,
			expect: "space...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestWaitForHonorsCancellation(t *testing.T) {
	originalSleep := sleep
	sleep = func(time.Duration) { select {} }
	defer func() { sleep = originalSleep }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Hour); err == nil {
		t.Fatal("expected context error")
	}
}

func TestWaitForZeroDuration(t *testing.T) {
	t.Parallel()

	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRandomBetweenBounds(t *testing.T) {
	t.Parallel()

	min, max := 5*time.Second, 15*time.Second
	for i := 0; i < 100; i++ {
		d := RandomBetween(min, max)
		if d < min || d > max {
			t.Fatalf("duration %v out of [%v, %v]", d, min, max)
		}
	}

	if got := RandomBetween(max, min); got != max {
		t.Fatalf("expected min returned when bounds inverted, got %v", got)
	}
}
