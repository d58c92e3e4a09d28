package spotify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Config holds client configuration.
type Config struct {
	Token            string                  // Required: OAuth bearer token
	BaseURL          string                  // Optional: API base URL (defaults to DefaultBaseURL, used for testing)
	HTTPClient       *http.Client            // Optional: HTTP client (defaults to http.DefaultClient)
	MaxAttempts      int                     // Optional: attempts per request (defaults to 3)
	RetryDelay       time.Duration           // Optional: fixed delay between attempts (defaults to 2s)
	ProgressInterval time.Duration           // Optional: minimum time between progress reports (defaults to 15s)
	Progress         func(loaded, total int) // Optional: called during long List walks
	Logger           Logger                  // Optional: Logger interface for debug logging
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
	// Infof logs an informational message with format and arguments.
	Infof(format string, args ...interface{})
}

// Client reads the Spotify Web API on behalf of a single bearer token.
type Client struct {
	httpClient       *http.Client
	baseURL          string
	maxAttempts      int
	retryDelay       time.Duration
	progressInterval time.Duration
	progress         func(loaded, total int)
	logger           Logger

	// now is swapped out in tests to drive progress reporting.
	now func() time.Time
}

const (
	// DefaultBaseURL is the default Spotify Web API endpoint.
	DefaultBaseURL = "https://api.spotify.com/v1/"

	// DefaultMaxAttempts is the number of tries a request gets before failing.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the fixed pause between attempts.
	DefaultRetryDelay = 2 * time.Second

	// DefaultProgressInterval is the minimum gap between progress reports.
	DefaultProgressInterval = 15 * time.Second
)

// NewClient creates a new Spotify API client.
//
// Returns an error if no token is configured.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: Token is required", ErrInvalidConfig)
	}

	base := http.DefaultClient
	if cfg.HTTPClient != nil {
		base = cfg.HTTPClient
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	progressInterval := cfg.ProgressInterval
	if progressInterval <= 0 {
		progressInterval = DefaultProgressInterval
	}

	return &Client{
		httpClient:       bearerClient(base, cfg.Token),
		baseURL:          baseURL,
		maxAttempts:      maxAttempts,
		retryDelay:       retryDelay,
		progressInterval: progressInterval,
		progress:         cfg.Progress,
		logger:           cfg.Logger,
		now:              time.Now,
	}, nil
}

// bearerClient wraps base so every request carries "Authorization: Bearer <token>".
// The token never expires from the client's point of view; there is no refresh.
func bearerClient(base *http.Client, token string) *http.Client {
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   transport,
		},
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
		Timeout:       base.Timeout,
	}
}

// BaseURL returns the API base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Me returns the profile of the user owning the token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.Get(ctx, "me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}

// logInfof logs an informational message if a logger is configured.
func (c *Client) logInfof(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Infof(format, args...)
	}
}
