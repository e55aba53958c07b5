// Package httpclient fetches AAStocks pages and data feeds.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/hsi-mcp/internal/common"
	"github.com/ternarybob/hsi-mcp/internal/interfaces"
	"github.com/ternarybob/hsi-mcp/internal/models"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxBodySize = 8 << 20
)

var pageHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
	"Connection":      "keep-alive",
}

// Client implements interfaces.PageFetcher over plain HTTP
type Client struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	retry      *RetryPolicy
	logger     arbor.ILogger
}

var _ interfaces.PageFetcher = (*Client)(nil)

// ClientOption configures the client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithRateLimit limits outbound requests. A non-positive rate disables limiting.
func WithRateLimit(requestsPerSecond float64, burst int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRetryPolicy replaces the retry policy
func WithRetryPolicy(policy *RetryPolicy) ClientOption {
	return func(c *Client) {
		if policy != nil {
			c.retry = policy
		}
	}
}

// NewClient creates a fetcher with browser-like defaults
func NewClient(logger arbor.ILogger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = arbor.NewLogger()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  DefaultUserAgent,
		retry:      NewRetryPolicy(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig creates a fetcher from the [scraper] configuration section
func NewClientFromConfig(config common.ScraperConfig, logger arbor.ILogger) *Client {
	return NewClient(logger,
		WithUserAgent(config.UserAgent),
		WithTimeout(common.ParseDuration(config.Timeout, DefaultTimeout)),
		WithRateLimit(config.RateLimit, config.RateBurst),
		WithRetryPolicy(NewRetryPolicy().WithMaxAttempts(config.MaxAttempts)),
	)
}

// Fetch retrieves an HTML page and parses it into a document
func (c *Client) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.get(ctx, url, pageHeaders)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", models.ErrFetch, url, err)
	}
	return doc, nil
}

// FetchJSON retrieves a raw feed payload with additional request headers
func (c *Client) FetchJSON(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	return c.get(ctx, url, headers)
}

func (c *Client) get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var body []byte
	start := time.Now()

	status, err := c.retry.ExecuteWithRetry(ctx, c.logger, func() (int, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return 0, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return 0, err
		}
		req.Header.Set("User-Agent", c.userAgent)
		for key, value := range headers {
			req.Header.Set(key, value)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return resp.StatusCode, fmt.Errorf("read body: %w", err)
		}
		return resp.StatusCode, nil
	})

	if err != nil {
		c.logger.Warn().Str("url", url).Err(err).Msg("Fetch failed")
		return nil, fmt.Errorf("%w: GET %s: %v", models.ErrFetch, url, err)
	}
	if status < 200 || status >= 300 {
		c.logger.Warn().Str("url", url).Int("status_code", status).Msg("Unexpected status")
		return nil, fmt.Errorf("%w: GET %s: HTTP %d", models.ErrFetch, url, status)
	}

	c.logger.Debug().
		Str("url", url).
		Int("status_code", status).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("Fetched")
	return body, nil
}
