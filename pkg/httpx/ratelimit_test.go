package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func countingTransport(n *atomic.Int32) http.RoundTripper {
	return httpx.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		n.Add(1)
		rec := httptest.NewRecorder()
		rec.WriteHeader(http.StatusOK)
		return rec.Result(), nil
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("allows requests under limit", func(t *testing.T) {
		var calls atomic.Int32
		rt := httpx.Chain(countingTransport(&calls), httpx.RateLimit(httpx.RateLimitConfig{
			RequestsPerWindow: 5,
			Window:            time.Second,
			Burst:             5, // Allow all 5 requests as a burst
		}))

		for i := range 5 {
			req := httptest.NewRequest(http.MethodGet, "http://backend/", nil)
			resp, err := rt.RoundTrip(req)
			require.NoError(t, err, "request %d should succeed", i+1)
			require.Equal(t, http.StatusOK, resp.StatusCode)
		}
		require.EqualValues(t, 5, calls.Load())
	})

	t.Run("fails as deadline when the wait cannot finish", func(t *testing.T) {
		var calls atomic.Int32
		rt := httpx.Chain(countingTransport(&calls), httpx.RateLimit(httpx.RateLimitConfig{
			RequestsPerWindow: 1,
			Window:            time.Minute,
			Burst:             1,
		}))

		req := httptest.NewRequest(http.MethodGet, "http://backend/", nil)
		_, err := rt.RoundTrip(req)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		req = httptest.NewRequest(http.MethodGet, "http://backend/", nil).WithContext(ctx)
		_, err = rt.RoundTrip(req)
		require.Error(t, err)
		require.True(t, errors.Is(err, context.DeadlineExceeded))
		require.EqualValues(t, 1, calls.Load(), "limited request must not reach the transport")
	})

	t.Run("disabled config passes through", func(t *testing.T) {
		var calls atomic.Int32
		rt := httpx.Chain(countingTransport(&calls), httpx.RateLimit(httpx.RateLimitConfig{}))

		for range 50 {
			req := httptest.NewRequest(http.MethodGet, "http://backend/", nil)
			_, err := rt.RoundTrip(req)
			require.NoError(t, err)
		}
		require.EqualValues(t, 50, calls.Load())
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return httpx.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(r)
			})
		}
	}

	var calls atomic.Int32
	rt := httpx.Chain(countingTransport(&calls), mark("outer"), mark("inner"))

	_, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://backend/", nil))
	require.NoError(t, err)
	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestBearerToken(t *testing.T) {
	t.Run("extracts token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer abc.def")
		require.Equal(t, "abc.def", httpx.BearerToken(req))
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		require.Empty(t, httpx.BearerToken(req))
	})

	t.Run("other scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
		require.Empty(t, httpx.BearerToken(req))
	})
}
