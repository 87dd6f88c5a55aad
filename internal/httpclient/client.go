// Package httpclient wraps resty with the outbound limits shared by every
// relay request: a timeout, a token-bucket limiter and a browser-like user
// agent. Retries are disabled; failover is the caller's job.
package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// DefaultUserAgent mimics a desktop browser; several relays reject bare clients
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Options configures a Client
type Options struct {
	Timeout time.Duration
	// RequestsPerSecond of 0 means unlimited
	RequestsPerSecond float64
	UserAgent         string
	// Transport overrides the pooled transport (tests)
	Transport http.RoundTripper
}

// Client wraps resty with rate limiting
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	mu      sync.RWMutex
}

// NewClient creates the outbound client
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	transport := opts.Transport
	if transport == nil {
		// pooled transport without retryablehttp's retry loop
		retryClient := retryablehttp.NewClient()
		retryClient.RetryMax = 0
		retryClient.Logger = nil
		transport = retryClient.HTTPClient.Transport
	}

	restyClient := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetTransport(transport).
		SetHeader("User-Agent", opts.UserAgent)

	c := &Client{Resty: restyClient}
	c.SetRateLimit(opts.RequestsPerSecond)
	return c
}

// SetRateLimit configures rate limiting (requests per second, 0 = unlimited)
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// Request creates a new request after waiting for the limiter
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	c.mu.RLock()
	limiter := c.Limiter
	c.mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	return c.Resty.R().SetContext(ctx), nil
}

// GetText issues an uncached GET and returns status and body
func (c *Client) GetText(ctx context.Context, url string) (int, string, error) {
	req, err := c.Request(ctx)
	if err != nil {
		return 0, "", err
	}

	resp, err := req.
		SetHeader("Cache-Control", "no-cache").
		SetHeader("Pragma", "no-cache").
		Get(url)
	if err != nil {
		return 0, "", fmt.Errorf("request failed: %w", err)
	}

	return resp.StatusCode(), resp.String(), nil
}
