// Package ratelimit implements a per-provider token bucket, acquired by
// the orchestrator before each structured-protocol attempt to stay
// polite to a given RDAP host; the bucket key is the registry host being
// queried within one bulk run. Textual (WHOIS) attempts are not
// rate-limited.
package ratelimit

import (
	"context"
	"time"
)

// ProviderLimiter is the interface the orchestrator rate-limits against:
// Acquire consumes one token (or reports how long to wait),
// and BlockUntil lets a caller impose a server-supplied Retry-After
// cooldown directly, bypassing the bucket math.
type ProviderLimiter interface {
	Acquire(ctx context.Context, provider string) (ok bool, retryAfter time.Duration, err error)
	BlockUntil(ctx context.Context, provider string, until time.Time) error
}

// Limits configures the token bucket. The zero value is not usable;
// callers pass explicit values (the engine uses a fixed defaultLimits).
type Limits struct {
	RatePerSec float64
	Burst      float64
	Block      time.Duration
}
