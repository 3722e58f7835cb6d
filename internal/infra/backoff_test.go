package infra

import (
	"testing"
	"time"
)

func TestBackoff_Delay(t *testing.T) {
	b := NewBackoff(500*time.Millisecond, 10*time.Second, 0)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{-1, 500 * time.Millisecond},
		{0, 500 * time.Millisecond},
		{1, 1 * time.Second},
		{3, 4 * time.Second},
		{5, 10 * time.Second}, // 16s capped
		{100, 10 * time.Second},
	}

	for _, tt := range tests {
		if got := b.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoff_Jitter(t *testing.T) {
	b := NewBackoff(time.Second, 8*time.Second, 0.5)

	b.random = func() float64 { return 1 }
	if got := b.Delay(1); got != 3*time.Second {
		t.Errorf("max jitter: Delay(1) = %s, want 3s", got)
	}

	b.random = func() float64 { return 0 }
	if got := b.Delay(1); got != 2*time.Second {
		t.Errorf("no jitter draw: Delay(1) = %s, want 2s", got)
	}

	// Jitter applies on top of the cap
	b.random = func() float64 { return 1 }
	if got := b.Delay(10); got != 12*time.Second {
		t.Errorf("capped: Delay(10) = %s, want 12s", got)
	}
}

func TestNewBackoff_Clamps(t *testing.T) {
	b := NewBackoff(2*time.Second, time.Second, 3)
	if b.Max != 2*time.Second {
		t.Errorf("Max = %s, want raised to Base", b.Max)
	}
	if b.Jitter != 1 {
		t.Errorf("Jitter = %v, want clamped to 1", b.Jitter)
	}
}

func TestBackoffFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.CoinMarketCap.RetryBaseMs = 250
	cfg.API.CoinMarketCap.RetryMaxMs = 1000
	cfg.API.CoinMarketCap.RetryJitter = 0

	b := BackoffFromConfig(cfg)
	if got := b.Delay(0); got != 250*time.Millisecond {
		t.Errorf("Delay(0) = %s", got)
	}
	if got := b.Delay(4); got != time.Second {
		t.Errorf("Delay(4) = %s", got)
	}
}
