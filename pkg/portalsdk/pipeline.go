package portalsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// attempt is the per-request refresh state.
type attempt int

const (
	attemptInitial attempt = iota
	attemptRetried
)

func (a attempt) String() string {
	if a == attemptRetried {
		return "RETRIED"
	}
	return "INITIAL"
}

// call describes one logical backend request. The same call is re-sent after
// a refresh, so the body is kept as bytes.
type call struct {
	method string
	path   string
	query  url.Values
	body   []byte

	// refreshable enables the one-shot refresh-and-retry on 401/403.
	refreshable bool

	// credentials marks the login call, whose 401/403 means bad credentials.
	credentials bool

	// fallback is the user message when the server gives none.
	fallback string

	state attempt
}

func newCall(method, path string, body any) (*call, error) {
	cl := &call{method: method, path: path}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		cl.body = raw
	}
	return cl, nil
}

// do sends cl and applies the refresh policy:
//
//	INITIAL + 401/403 -> RETRIED, refresh once, re-send with the new token
//	RETRIED + 401/403 -> returned as is
//
// When the refresh fails the session is cleared, the navigator is sent to the
// login view and the original failure is returned wrapped in ErrSessionExpired.
// The retry is never sent in that case.
func (c *Client) do(ctx context.Context, cl *call) (*http.Response, error) {
	resp, err := c.send(ctx, cl)
	if err != nil {
		return nil, err
	}

	if !cl.refreshable || cl.state == attemptRetried || !IsAuthFailure(resp.StatusCode) {
		return resp, nil
	}

	cl.state = attemptRetried
	c.logger.Debug("authorization failure, refreshing token", "path", cl.path, "status", resp.StatusCode)

	if refreshErr := c.refresh(ctx); refreshErr != nil {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		original := parseErrorResponse(resp.StatusCode, body, c.url(cl.path, cl.query), false)
		original.Fallback = cl.fallback

		c.logger.Warn("token refresh failed, clearing session", "path", cl.path, "error", refreshErr)
		c.expireSession(ctx)
		return nil, fmt.Errorf("%w: %w", ErrSessionExpired, original)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return c.send(ctx, cl)
}

// send performs a single HTTP exchange, attaching the current access token
// when there is one.
func (c *Client) send(ctx context.Context, cl *call) (*http.Response, error) {
	target := c.url(cl.path, cl.query)

	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.store.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		apiErr := transportError(err, target)
		apiErr.Fallback = cl.fallback
		return nil, apiErr
	}

	return resp, nil
}

// refresh mints a new access token. The expired token is forwarded in the
// Authorization header and the refresh cookie travels through the jar.
func (c *Client) refresh(ctx context.Context) error {
	cl, err := newCall(http.MethodPost, PathRefresh, struct{}{})
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, cl)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshRejected, err)
	}

	data, err := decodeEnvelope[RefreshResponse](resp, cl, c.url(cl.path, nil))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshRejected, err)
	}
	if data.AccessToken == "" {
		return fmt.Errorf("%w: response carried no access token", ErrRefreshRejected)
	}

	if err := c.store.updateToken(ctx, data.AccessToken, data.Username); err != nil {
		return err
	}

	c.logger.Info("access token refreshed")
	return nil
}

// expireSession clears the session and sends the user to the login view,
// unless they are already there.
func (c *Client) expireSession(ctx context.Context) {
	c.store.clear(ctx)
	if c.nav.CurrentView() != ViewLogin {
		c.nav.RedirectToLogin()
	}
}

// execute runs cl through the pipeline and decodes the envelope data into T.
func execute[T any](ctx context.Context, c *Client, cl *call) (T, error) {
	resp, err := c.do(ctx, cl)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeEnvelope[T](resp, cl, c.url(cl.path, cl.query))
}

// executeMessage runs cl through the pipeline and decodes a message payload.
func executeMessage(ctx context.Context, c *Client, cl *call) (*MessageResult, error) {
	resp, err := c.do(ctx, cl)
	if err != nil {
		return nil, err
	}
	return decodeMessage(resp, cl, c.url(cl.path, cl.query))
}
