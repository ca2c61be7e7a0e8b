package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// rateLimitedClient applies a token-bucket limiter around completions.
type rateLimitedClient struct {
	base    Client
	limiter *rate.Limiter
}

// WrapWithRateLimit wraps the provided client with a limiter when a positive
// limit is supplied. A burst less than 1 is coerced to 1. Callers block in
// Complete until a token is available or the context ends.
func WrapWithRateLimit(client Client, limit rate.Limit, burst int) Client {
	if limit <= 0 {
		return client
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedClient{
		base:    client,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (c *rateLimitedClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.base.Complete(ctx, req)
}

func (c *rateLimitedClient) Model() string {
	return c.base.Model()
}
