package coingecko

import (
	"net/http"
	"time"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=coingecko_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const defaultBaseURL = "https://api.coingecko.com/api/v3/simple/price"

// Client fetches the BTC/USD simple price from the CoinGecko API.
// https://docs.coingecko.com/reference/simple-price
type Client struct {
	// baseURL is the full URL of the simple price endpoint.
	baseURL string
	// httpClient is the HTTP httpClient.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// timeout bounds a single request attempt.
	timeout time.Duration
	// retryAttempts is the total number of attempts per Fetch (>= 1).
	retryAttempts int
	// retryBackoff is the fixed pause between failed attempts.
	retryBackoff time.Duration
	// sleep pauses between attempts. Replaced in tests.
	sleep func(time.Duration)
}

// ClientOption is a configuration option for the CoinGecko client.
type ClientOption func(*Client)

// WithBaseURL sets the simple price endpoint URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRetryAttempts sets the total number of attempts per Fetch.
// Values below 1 are clamped to 1.
func WithRetryAttempts(attempts int) ClientOption {
	return func(c *Client) {
		if attempts < 1 {
			attempts = 1
		}
		c.retryAttempts = attempts
	}
}

// WithRetryBackoff sets the fixed pause between failed attempts.
func WithRetryBackoff(backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.retryBackoff = backoff
	}
}

// WithSleep replaces the pause between attempts, so retry tests run
// without real sleeping.
func WithSleep(sleep func(time.Duration)) ClientOption {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// NewClient creates a new CoinGecko client with the upstream defaults:
// 3s per-attempt timeout, 2 attempts, 300ms backoff.
func NewClient(options ...ClientOption) *Client {
	var client = &Client{
		baseURL:       defaultBaseURL,
		httpClient:    http.DefaultClient,
		header:        http.Header{},
		timeout:       3 * time.Second,
		retryAttempts: 2,
		retryBackoff:  300 * time.Millisecond,
		sleep:         time.Sleep,
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// Name identifies this provider in quotes and logs.
func (c *Client) Name() string { return "coingecko" }
