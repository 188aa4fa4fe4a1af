package retry

import (
	"testing"
	"time"
)

func TestExponentialBackoff_NextDelay(t *testing.T) {
	b := NewExponentialBackoff(5,
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(time.Second),
		WithJitter(0),
	)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{10, time.Second},
	}
	for _, tt := range tests {
		if got := b.NextDelay(tt.attempt); got != tt.want {
			t.Errorf("NextDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialBackoff_JitterBounds(t *testing.T) {
	low := NewExponentialBackoff(1, WithInitialDelay(time.Second), WithJitter(0.1),
		WithRandomSource(func() float64 { return 0 }))
	high := NewExponentialBackoff(1, WithInitialDelay(time.Second), WithJitter(0.1),
		WithRandomSource(func() float64 { return 0.999999 }))

	if got := low.NextDelay(0); got != 900*time.Millisecond {
		t.Errorf("low jitter delay = %v, want 900ms", got)
	}
	if got := high.NextDelay(0); got < 1099*time.Millisecond || got > 1100*time.Millisecond {
		t.Errorf("high jitter delay = %v, want ~1.1s", got)
	}
}

func TestWithJitter_Clamped(t *testing.T) {
	if b := NewExponentialBackoff(1, WithJitter(5)); b.jitter != 1 {
		t.Errorf("jitter = %v, want 1", b.jitter)
	}
	if b := NewExponentialBackoff(1, WithJitter(-1)); b.jitter != 0 {
		t.Errorf("jitter = %v, want 0", b.jitter)
	}
}

func TestExponentialBackoff_MaxAttempts(t *testing.T) {
	if got := NewExponentialBackoff(7).MaxAttempts(); got != 7 {
		t.Errorf("MaxAttempts() = %d, want 7", got)
	}
}
