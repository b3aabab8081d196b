// Package wordpress talks to the CMS hosting the LMS: its REST media and
// taxonomy endpoints and, when configured, its MySQL tables.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"course-migrator/pkg/logger"
)

const (
	// DefaultPostType is the custom post type courses are stored as
	DefaultPostType = "courses"
	// DefaultTablePrefix is the WordPress table prefix
	DefaultTablePrefix = "wp_"

	defaultTimeout = 60 * time.Second
)

// RESTConfig holds settings for the WordPress REST API
type RESTConfig struct {
	// BaseURL is the wp-json root, e.g. https://example.com/wp-json
	BaseURL string
	// Username and Password authenticate with HTTP Basic, typically an
	// application password
	Username   string
	Password   string
	PostType   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logger.Logger
}

// restClient carries what every REST collaborator shares
type restClient struct {
	baseURL  string
	username string
	password string
	postType string
	http     *http.Client
	log      logger.Logger
}

func newRESTClient(cfg RESTConfig, component string) restClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.PostType == "" {
		cfg.PostType = DefaultPostType
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return restClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		postType: cfg.PostType,
		http:     cfg.HTTPClient,
		log:      cfg.Logger.With(logger.Component(component)),
	}
}

// StatusError is a non-2xx REST response
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wordpress %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// send issues a request and decodes a JSON response into out when out is not nil
func (c restClient) send(ctx context.Context, method, path string, body io.Reader, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c restClient) sendJSON(ctx context.Context, method, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.send(ctx, method, path, bytes.NewReader(data), map[string]string{"Content-Type": "application/json"}, out)
}

func decodeString(s string, out any) error {
	return json.Unmarshal([]byte(s), out)
}
