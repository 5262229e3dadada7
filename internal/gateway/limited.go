package gateway

import (
	"context"

	"factloop/internal/worker"
)

// limitedCompleter applies a rate limiter in front of every provider call
type limitedCompleter struct {
	inner   Completer
	limiter *worker.Limiter
}

// WithRateLimit wraps a completer so every call waits for rate limit
// clearance, keyed by provider name
func WithRateLimit(inner Completer, limiter *worker.Limiter) Completer {
	if limiter == nil {
		return inner
	}
	return &limitedCompleter{inner: inner, limiter: limiter}
}

func (c *limitedCompleter) Name() string { return c.inner.Name() }

func (c *limitedCompleter) IsAvailable(ctx context.Context) bool {
	return c.inner.IsAvailable(ctx)
}

func (c *limitedCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := c.limiter.Wait(ctx, c.inner.Name()); err != nil {
		return "", err
	}
	return c.inner.Complete(ctx, systemPrompt, userPrompt)
}
