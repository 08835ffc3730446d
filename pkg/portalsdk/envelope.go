package portalsdk

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// decodeEnvelope is the one place responses are interpreted. It returns the
// envelope's data decoded into T, or an *APIError describing why not.
func decodeEnvelope[T any](resp *http.Response, c *call, target string) (T, error) {
	var zero T

	env, err := readEnvelope(resp, c, target)
	if err != nil {
		return zero, err
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return zero, nil
	}

	var data T
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return zero, &APIError{
			Kind:     KindDecode,
			URL:      target,
			Fallback: c.fallback,
			Err:      fmt.Errorf("failed to decode response data: %w", err),
		}
	}

	return data, nil
}

// decodeMessage interprets a response whose success payload is only a message.
func decodeMessage(resp *http.Response, c *call, target string) (*MessageResult, error) {
	env, err := readEnvelope(resp, c, target)
	if err != nil {
		return nil, err
	}
	return &MessageResult{Success: env.Success, Message: env.Message}, nil
}

// readEnvelope reads and closes the body, mapping non-2xx statuses and
// success=false envelopes to *APIError.
func readEnvelope(resp *http.Response, c *call, target string) (*Envelope, error) {
	defer resp.Body.Close()

	// Read body once for both error parsing and success decoding
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{
			Kind:     KindConnectivity,
			URL:      target,
			Fallback: c.fallback,
			Err:      fmt.Errorf("failed to read response body: %w", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseErrorResponse(resp.StatusCode, body, target, c.credentials)
		apiErr.Fallback = c.fallback
		return nil, apiErr
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &APIError{
			Kind:       KindDecode,
			StatusCode: resp.StatusCode,
			URL:        target,
			Fallback:   c.fallback,
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}

	if !env.Success {
		return nil, &APIError{
			Kind:       KindRejected,
			StatusCode: resp.StatusCode,
			Message:    env.Message,
			URL:        target,
			Fallback:   c.fallback,
		}
	}

	return &env, nil
}
