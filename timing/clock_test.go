package timing

import (
	"testing"
	"time"
)

func TestElapsedTruncatesToMicroseconds(t *testing.T) {
	start := time.Unix(0, 0)

	tests := []struct {
		delta time.Duration
		want  time.Duration
	}{
		{0, 0},
		{999 * time.Nanosecond, 0},
		{time.Microsecond, time.Microsecond},
		{1500 * time.Nanosecond, time.Microsecond},
		{500*time.Microsecond + 999, 500 * time.Microsecond},
		{time.Second, time.Second},
	}

	for _, tt := range tests {
		got := Elapsed(start, start.Add(tt.delta))
		if got != tt.want {
			t.Errorf("Elapsed(+%v) = %v, want %v", tt.delta, got, tt.want)
		}
	}
}

func TestManualScriptedSteps(t *testing.T) {
	c := NewManual(500*time.Microsecond, 0, 900*time.Microsecond)
	c.Step = time.Millisecond

	start := c.Now()
	if got := Since(c, start); got != 500*time.Microsecond {
		t.Errorf("first interval = %v, want 500µs", got)
	}

	start = c.Now()
	if got := Since(c, start); got != 900*time.Microsecond {
		t.Errorf("second interval = %v, want 900µs", got)
	}

	// Script exhausted; falls back to Step.
	start = c.Now()
	if got := Since(c, start); got != time.Millisecond {
		t.Errorf("fallback interval = %v, want 1ms", got)
	}
}

func TestOverhead(t *testing.T) {
	c := NewManual()
	c.Step = 2 * time.Microsecond

	if got := Overhead(c); got != 2*time.Microsecond {
		t.Errorf("Overhead = %v, want 2µs", got)
	}

	if got := Overhead(System{}); got < 0 {
		t.Errorf("system overhead negative: %v", got)
	}
}
