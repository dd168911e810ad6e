package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoffFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		attempt  int
		expected time.Duration
	}{
		{"constant first", BackoffConstant, 1, 100 * time.Millisecond},
		{"constant later", BackoffConstant, 5, 100 * time.Millisecond},
		{"linear", BackoffLinear, 3, 300 * time.Millisecond},
		{"linear capped", BackoffLinear, 50, time.Second},
		{"exponential first", BackoffExponential, 1, 100 * time.Millisecond},
		{"exponential third", BackoffExponential, 3, 400 * time.Millisecond},
		{"exponential capped", BackoffExponential, 10, time.Second},
		{"unknown is exponential", "fibonacci", 2, 200 * time.Millisecond},
		{"attempt zero", BackoffExponential, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BackoffFromConfig(tt.kind, 100, 1000).NextDelay(tt.attempt)
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestBackoffFromConfigDefaultCap(t *testing.T) {
	got := BackoffFromConfig(BackoffLinear, 1000, 0).NextDelay(600)
	if got != time.Minute {
		t.Fatalf("expected default cap of 1m, got %v", got)
	}
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("sleep did not return promptly")
	}
}

func TestSleepZero(t *testing.T) {
	if err := Sleep(context.Background(), 0); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
