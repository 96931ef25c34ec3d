package openweather

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/yanqian/clima-widget/internal/domain/weather"
	apperrors "github.com/yanqian/clima-widget/pkg/errors"
)

// RateLimitedClient wraps a weather.Client with a token bucket.
type RateLimitedClient struct {
	client  weather.Client
	limiter *rate.Limiter
}

// NewRateLimitedClient allows rps requests per second with the given burst.
func NewRateLimitedClient(client weather.Client, rps float64, burst int) *RateLimitedClient {
	return &RateLimitedClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Fetch waits for a token, then forwards to the wrapped client.
func (r *RateLimitedClient) Fetch(ctx context.Context, q weather.Query) (weather.Report, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return weather.Report{}, apperrors.Wrap(apperrors.CodeRateLimited, "rate limit wait canceled", err)
	}
	return r.client.Fetch(ctx, q)
}

var _ weather.Client = (*RateLimitedClient)(nil)
