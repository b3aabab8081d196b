package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"course-migrator/pkg/logger"
	"course-migrator/pkg/metrics"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// ClientType represents the type of HTTP client configuration
type ClientType string

const (
	// BrowserClient sends a fixed desktop Chrome profile. Course sites reject
	// requests without a browser-like User-Agent.
	BrowserClient ClientType = "browser"

	// CloudflareClient uses curl-like headers for hosts that block browser
	// User-Agents. Used for feed and sitemap discovery.
	CloudflareClient ClientType = "cloudflare"
)

// BrowserUserAgent is the User-Agent sent by BrowserClient
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// DefaultTimeout is the page fetch timeout
const DefaultTimeout = 30 * time.Second

var (
	// ErrUnexpectedStatus is returned for any non-200 response
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrEmptyBody is returned when a 200 response has no content
	ErrEmptyBody = errors.New("empty response body")
)

// Config holds client settings
type Config struct {
	Type              ClientType
	Timeout           time.Duration
	RequestsPerSecond float64 // <=0 disables pacing
	Logger            logger.Logger
	Metrics           *metrics.Metrics
}

// HTTPClient wraps an http.Client with a header profile and request pacing.
// Calls are paced one at a time by the limiter.
type HTTPClient struct {
	client     *http.Client
	clientType ClientType
	limiter    *rate.Limiter
	log        logger.Logger
	metrics    *metrics.Metrics
}

// New creates a client from a Config
func New(cfg Config) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &HTTPClient{
		client:     client,
		clientType: cfg.Type,
		limiter:    limiter,
		log:        cfg.Logger.With(logger.Component("fetcher")),
		metrics:    cfg.Metrics,
	}
}

// Do executes an HTTP request with the appropriate headers for the client type
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
		}
	}
	c.setHeaders(req)
	return c.client.Do(req)
}

// Get is a convenience method for GET requests
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Response is a fully read response body
type Response struct {
	URL         string
	ContentType string
	Body        []byte
}

// IsPDF reports whether the response carries a PDF document
func (r *Response) IsPDF() bool {
	return strings.Contains(r.ContentType, "application/pdf") || bytes.HasPrefix(r.Body, []byte("%PDF"))
}

// FetchBytes GETs url with the optional cookie header and returns the raw body.
// Non-200 responses and empty bodies are errors.
func (c *HTTPClient) FetchBytes(ctx context.Context, url, cookies string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if cookies != "" {
		req.Header.Set("Cookie", cookies)
	}

	start := time.Now()
	resp, err := c.Do(req)
	if err != nil {
		c.log.Warn("fetch failed", logger.String("url", url), logger.Error(err))
		c.metrics.PageFetched("error")
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("unexpected status", logger.String("url", url), logger.Int("status", resp.StatusCode))
		c.metrics.PageFetched("bad_status")
		return nil, fmt.Errorf("%w: %d for %s", ErrUnexpectedStatus, resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		c.metrics.PageFetched("empty")
		return nil, fmt.Errorf("%w: %s", ErrEmptyBody, url)
	}

	c.metrics.PageFetched("ok")
	c.log.Debug("fetched page",
		logger.String("url", url),
		logger.Int("bytes", len(body)),
		logger.Duration("elapsed", time.Since(start)))

	return &Response{URL: url, ContentType: resp.Header.Get("Content-Type"), Body: body}, nil
}

// Fetch GETs url and returns the body decoded to UTF-8 from its declared charset
func (c *HTTPClient) Fetch(ctx context.Context, url, cookies string) (string, error) {
	resp, err := c.FetchBytes(ctx, url, cookies)
	if err != nil {
		return "", err
	}
	return DecodeHTML(resp.Body, resp.ContentType), nil
}

// DecodeHTML converts body to UTF-8 using the Content-Type header and meta
// charset hints. The raw bytes are returned when no decoder applies.
func DecodeHTML(body []byte, contentType string) string {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

// setHeaders sets the appropriate headers based on client type
func (c *HTTPClient) setHeaders(req *http.Request) {
	switch c.clientType {
	case BrowserClient:
		req.Header.Set("User-Agent", BrowserUserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9,ar;q=0.8")
		req.Header.Set("Connection", "keep-alive")
		req.Header.Set("Upgrade-Insecure-Requests", "1")

	case CloudflareClient:
		req.Header.Set("User-Agent", "curl/8.7.1")
	}
}
