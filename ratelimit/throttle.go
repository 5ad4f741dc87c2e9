package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// ProviderThrottle paces outbound calls to a translation provider
type ProviderThrottle struct {
	limiter *rate.Limiter
}

// NewProviderThrottle allows perSecond calls with the given burst.
// A non-positive perSecond disables throttling.
func NewProviderThrottle(perSecond float64, burst int) *ProviderThrottle {
	if perSecond <= 0 {
		return &ProviderThrottle{}
	}
	if burst < 1 {
		burst = 1
	}
	return &ProviderThrottle{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until a call may proceed or ctx is done
func (t *ProviderThrottle) Wait(ctx context.Context) error {
	if t == nil || t.limiter == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}

// Allow reports whether a call may proceed right now without waiting
func (t *ProviderThrottle) Allow() bool {
	if t == nil || t.limiter == nil {
		return true
	}
	return t.limiter.Allow()
}
