package agent

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Generator so calls share a token bucket.
type RateLimited struct {
	Generator
	limiter *rate.Limiter
}

// NewRateLimited limits gen to perMinute calls per minute with a burst of one.
// A non-positive perMinute disables limiting and returns gen unchanged.
func NewRateLimited(gen Generator, perMinute float64) Generator {
	if perMinute <= 0 {
		return gen
	}
	return &RateLimited{
		Generator: gen,
		limiter:   rate.NewLimiter(rate.Limit(perMinute/60), 1),
	}
}

// Generate waits for a token before delegating.
func (r *RateLimited) Generate(ctx context.Context, req *Request) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.Generator.Generate(ctx, req)
}
