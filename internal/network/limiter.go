package network

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter gates outbound requests. Implementations must be safe for
// concurrent use; the run shares one instance across all workers.
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewLimiter returns a token bucket refilled at rps with the given burst.
// A non-positive rps disables limiting.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if burst < 1 {
		burst = 1
	}
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
