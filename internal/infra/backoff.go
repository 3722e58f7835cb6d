package infra

import (
	"math/rand"
	"time"
)

// Backoff yields retry delays for listing fetches: Base doubled per attempt,
// capped at Max, plus up to Jitter*delay of random spread so that several
// instances do not hit a rate-limited API in lockstep.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64

	random func() float64
}

// NewBackoff creates a Backoff. jitter is clamped to [0, 1].
func NewBackoff(baseDelay, maxDelay time.Duration, jitter float64) *Backoff {
	if maxDelay < baseDelay {
		maxDelay = baseDelay
	}
	return &Backoff{
		Base:   baseDelay,
		Max:    maxDelay,
		Jitter: min(max(jitter, 0), 1),
		random: rand.Float64,
	}
}

// BackoffFromConfig reads the retry settings of the coinmarketcap section.
func BackoffFromConfig(cfg *Config) *Backoff {
	cmc := cfg.API.CoinMarketCap
	return NewBackoff(
		time.Duration(cmc.RetryBaseMs)*time.Millisecond,
		time.Duration(cmc.RetryMaxMs)*time.Millisecond,
		cmc.RetryJitter,
	)
}

// Delay returns the wait before retry number attempt (0-based).
func (b *Backoff) Delay(attempt int) time.Duration {
	d := b.Max
	// 2^20 * any sane base already exceeds Max
	if attempt < 20 {
		d = min(b.Base<<max(attempt, 0), b.Max)
	}

	if b.Jitter > 0 {
		d += time.Duration(float64(d) * b.Jitter * b.random())
	}
	return d
}
