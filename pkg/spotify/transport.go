package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"
)

// maxErrorBody caps how much of a failed response ends up in a StatusError.
const maxErrorBody = 256

// ResolveURL turns path into an absolute request URL.
//
// Paths that are not already under the base URL get it prefixed, so
// both "me/tracks" and a server-supplied "next" link work. Params are
// appended with '&' when the URL already has a query and '?' otherwise.
func (c *Client) ResolveURL(path string, params url.Values) string {
	u := path
	if !strings.HasPrefix(u, c.baseURL) {
		u = c.baseURL + strings.TrimPrefix(u, "/")
	}

	if encoded := params.Encode(); encoded != "" {
		if strings.Contains(u, "?") {
			u += "&" + encoded
		} else {
			u += "?" + encoded
		}
	}

	return u
}

// Get fetches path and decodes the JSON response into out.
//
// It handles:
// - URL normalization against the base URL
// - Bearer authorization (via the client's transport)
// - Fixed-delay retries on network errors, non-2xx statuses and bad JSON
// - Context cancellation
//
// If every attempt fails, the returned error is a *FetchError wrapping
// ErrRetriesExhausted.
func (c *Client) Get(ctx context.Context, path string, params url.Values, out interface{}) error {
	return c.GetWithAttempts(ctx, path, params, c.maxAttempts, out)
}

// GetWithAttempts is Get with an explicit attempt budget.
func (c *Client) GetWithAttempts(ctx context.Context, path string, params url.Values, attempts int, out interface{}) error {
	if attempts <= 0 {
		attempts = 1
	}

	reqURL := c.ResolveURL(path, params)

	var lastErr error
	for i := 0; i < attempts; i++ {
		c.logDebugf("spotify: GET %s (attempt %d/%d)", reqURL, i+1, attempts)

		body, err := c.do(ctx, reqURL)
		if err == nil {
			if err = decode(body, out); err != nil {
				err = fmt.Errorf("failed to parse JSON response: %w", err)
			}
		}
		if err == nil {
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err
		c.logInfof("Couldn't load URL: %s (%v)", reqURL, err)

		// No point waiting after the final attempt.
		if i < attempts-1 {
			if !sleep(ctx, c.retryDelay) {
				return ctx.Err()
			}
			c.logInfof("Trying again...")
		}
	}

	return &FetchError{URL: reqURL, Attempts: attempts, Err: lastErr}
}

// decode unmarshals body into a fresh value and copies it to out only on
// success. json.Unmarshal keeps fields it set before hitting an error, so
// decoding straight into out would let a failed attempt leak into a retry.
func decode(body []byte, out interface{}) error {
	dst := reflect.ValueOf(out)
	if dst.Kind() != reflect.Pointer || dst.IsNil() {
		return json.Unmarshal(body, out)
	}

	fresh := reflect.New(dst.Elem().Type())
	if err := json.Unmarshal(body, fresh.Interface()); err != nil {
		return err
	}
	dst.Elem().Set(fresh.Elem())
	return nil
}

// do performs a single GET and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "spotify-backup/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}

	return body, nil
}

// sleep waits for the specified duration or until context is cancelled.
// Returns true if sleep completed, false if context was cancelled.
func sleep(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
