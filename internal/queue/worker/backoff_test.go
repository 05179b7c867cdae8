package worker

import (
	"testing"
	"time"
)

func TestExponentialBackoff_Growth(t *testing.T) {
	cases := []struct {
		attempt int
		min     time.Duration
	}{
		{0, 2 * time.Second},
		{1, 4 * time.Second},
		{2, 8 * time.Second},
		{3, 16 * time.Second},
	}

	for _, tc := range cases {
		got := ExponentialBackoff(tc.attempt)

		// jitter adds at most 250ms on top of the base delay
		if got < tc.min || got > tc.min+250*time.Millisecond {
			t.Fatalf("attempt %d: got %v, want between %v and %v", tc.attempt, got, tc.min, tc.min+250*time.Millisecond)
		}
	}
}

func TestExponentialBackoff_Capped(t *testing.T) {
	got := ExponentialBackoff(30)

	if got > 5*time.Minute+250*time.Millisecond {
		t.Fatalf("backoff should cap at 5m plus jitter, got %v", got)
	}
}
