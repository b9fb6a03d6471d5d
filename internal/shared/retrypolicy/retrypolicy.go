// Package retrypolicy implements the single reusable exponential-backoff-
// with-full-jitter policy referenced by spec §9 ("Retry/backoff
// duplication"): source retries, source throttle backoff, and sink retries
// all share this one policy value instead of three hand-rolled copies.
package retrypolicy

import (
	"context"
	"math/rand"
	"time"
)

// Policy is an immutable exponential-backoff-with-full-jitter schedule,
// capped at BaseDelay * 2^MaxRetries.
type Policy struct {
	BaseDelay  time.Duration
	MaxRetries int
}

// New builds a Policy from the configured base delay (milliseconds) and
// retry ceiling.
func New(baseDelayMs int, maxRetries int) Policy {
	return Policy{
		BaseDelay:  time.Duration(baseDelayMs) * time.Millisecond,
		MaxRetries: maxRetries,
	}
}

// Delay returns the jittered delay before attempt number `attempt` (0-based;
// attempt 0 is the first retry after the initial try). Full jitter: a
// uniform random value in [0, cap), where cap doubles each attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	ceiling := p.BaseDelay << uint(attempt)
	maxCeiling := p.BaseDelay << uint(p.MaxRetries)
	if ceiling <= 0 || ceiling > maxCeiling {
		ceiling = maxCeiling
	}
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(ceiling)))
}

// Sleep waits for Delay(attempt) or until ctx is cancelled, whichever comes
// first. It returns ctx.Err() if cancellation won the race.
func (p Policy) Sleep(ctx context.Context, attempt int) error {
	timer := time.NewTimer(p.Delay(attempt))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Exhausted reports whether attempt has used up the retry budget (attempt is
// 0-based, counting retries after the initial try).
func (p Policy) Exhausted(attempt int) bool {
	return attempt >= p.MaxRetries
}
