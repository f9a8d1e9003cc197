package identity

import (
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client resolves access tokens against the auth provider.
type Client struct {
	baseURL string
	apiKey  string
	http    *resty.Client
	logger  *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new auth provider client. apiKey is the project's
// public key, sent as the "apikey" header.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		http:         resty.New().SetTimeout(10 * time.Second),
		logger:       slog.Default(),
		maxRetries:   2,
		retryBackoff: 200 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.http.SetBaseURL(c.baseURL).
		SetHeader("Accept", "application/json")
	if c.apiKey != "" {
		c.http.SetHeader("apikey", c.apiKey)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithRetries sets the retry configuration. A negative count means no retries.
func WithRetries(maxRetries int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max(maxRetries, 0)
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRestyClient sets a custom resty client.
func WithRestyClient(rc *resty.Client) ClientOption {
	return func(c *Client) {
		c.http = rc
	}
}
