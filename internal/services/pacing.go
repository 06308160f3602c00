package services

import (
	"context"

	"golang.org/x/time/rate"
)

// NewLimiter returns a limiter allowing rps requests per second with a burst of one, or nil when rps is not positive.
//
// A single limiter may be shared by several clients so that all upstream calls are paced together.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// pace blocks until l admits one request. A nil limiter never blocks.
func pace(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}
