package httpx

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters for outgoing calls.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// DefaultLimit keeps a single client well below anything a backend would
// consider abusive while leaving room for a dashboard fan-out.
var DefaultLimit = RateLimitConfig{
	RequestsPerWindow: 20,
	Window:            time.Second,
	Burst:             10,
}

// Enabled reports whether the config describes a usable limit.
func (c RateLimitConfig) Enabled() bool {
	return c.RequestsPerWindow > 0 && c.Window > 0
}

// Limit converts the config into a token bucket rate.
func (c RateLimitConfig) Limit() rate.Limit {
	return rate.Limit(float64(c.RequestsPerWindow) / c.Window.Seconds())
}

// RateLimit returns a middleware that waits for a token before each request.
// A wait that cannot finish before the request's deadline fails as a
// deadline error, so callers classify it as a timeout.
func RateLimit(config RateLimitConfig) Middleware {
	if !config.Enabled() {
		return func(next http.RoundTripper) http.RoundTripper { return next }
	}

	burst := max(config.Burst, 1)
	limiter := rate.NewLimiter(config.Limit(), burst)

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			ctx := r.Context()
			if err := limiter.Wait(ctx); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				return nil, fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
			}
			return next.RoundTrip(r)
		})
	}
}
