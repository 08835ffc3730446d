package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/portal/pkg/idx"
)

// RequestIDHeader carries the per-request identifier to the backend.
const RequestIDHeader = "X-Request-ID"

type roundTripper struct {
	base *slog.Logger
	next http.RoundTripper
}

// Transport returns a middleware that tags each outgoing request with a
// request ID and logs its outcome. The ID comes from the request header, then
// from the context (see WithRequestID), and is minted otherwise.
func Transport(base *slog.Logger) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		if next == nil {
			next = http.DefaultTransport
		}
		return &roundTripper{base: base, next: next}
	}
}

func (t *roundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()

	reqID := r.Header.Get(RequestIDHeader)
	if reqID == "" {
		reqID = RequestID(r.Context())
		if reqID == "" {
			reqID = idx.New().String()
		}
		r = r.Clone(r.Context())
		r.Header.Set(RequestIDHeader, reqID)
	}

	ctx := WithContext(r.Context(), t.base)
	ctx = WithRequestID(ctx, reqID)
	logger := FromContext(ctx)

	resp, err := t.next.RoundTrip(r.WithContext(ctx))
	duration := time.Since(start)

	if err != nil {
		logger.Warn("http_request_failed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	logger.Debug("http_request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	)
	return resp, nil
}
