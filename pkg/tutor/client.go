package tutor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"course-migrator/pkg/logger"
	"course-migrator/pkg/metrics"
)

const (
	// DefaultBaseURL is the WordPress REST root of the target site
	DefaultBaseURL = "https://wedti.com/wp-json"
	// DefaultTimeout applies to every API call
	DefaultTimeout = 60 * time.Second

	apiPrefix = "/tutor/v1"
)

// Config holds API client settings
type Config struct {
	BaseURL    string
	Key        string
	Secret     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logger.Logger
	Metrics    *metrics.Metrics
}

// Client calls the Tutor LMS REST API with HTTP Basic auth
type Client struct {
	baseURL string
	key     string
	secret  string
	http    *http.Client
	log     logger.Logger
	metrics *metrics.Metrics
}

// New creates an API client
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		key:     cfg.Key,
		secret:  cfg.Secret,
		http:    cfg.HTTPClient,
		log:     cfg.Logger.With(logger.Component("tutor")),
		metrics: cfg.Metrics,
	}
}

// CreateCourse submits a course and returns its id
func (c *Client) CreateCourse(ctx context.Context, req CourseRequest) (int, error) {
	return c.create(ctx, "courses", req)
}

// CreateTopic submits a topic and returns its id
func (c *Client) CreateTopic(ctx context.Context, req TopicRequest) (int, error) {
	return c.create(ctx, "topics", req)
}

// CreateLesson submits a lesson and returns its id
func (c *Client) CreateLesson(ctx context.Context, req LessonRequest) (int, error) {
	return c.create(ctx, "lessons", req)
}

// PatchCourse applies a partial update to a course
func (c *Client) PatchCourse(ctx context.Context, courseID int, fields map[string]any) error {
	_, err := c.do(ctx, http.MethodPatch, "courses/"+strconv.Itoa(courseID), fields)
	return err
}

// GetCourse fetches a course as raw JSON
func (c *Client) GetCourse(ctx context.Context, courseID int) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, "courses/"+strconv.Itoa(courseID), nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (c *Client) create(ctx context.Context, endpoint string, payload any) (int, error) {
	body, err := c.do(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return 0, err
	}
	id, err := ParseID(body)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", strings.TrimSuffix(endpoint, "s"), err)
	}
	c.log.Debug("created", logger.String("endpoint", endpoint), logger.Int("id", id))
	return id, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	url := c.baseURL + apiPrefix + "/" + endpoint
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.key, c.secret)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	label := metricLabel(endpoint)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveAPI(label, "error", time.Since(start))
		c.log.Error("api request failed", logger.String("method", method), logger.String("url", url), logger.Error(err))
		return nil, fmt.Errorf("failed to call %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveAPI(label, strconv.Itoa(resp.StatusCode), time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseAPIError(resp.StatusCode, body)
		c.log.Warn("api rejected request",
			logger.String("method", method),
			logger.String("endpoint", endpoint),
			logger.Int("status", resp.StatusCode),
			logger.String("code", apiErr.Code),
			logger.String("message", apiErr.Message),
			logger.String("details", string(apiErr.Details)))
		return nil, apiErr
	}
	return body, nil
}

// ParseID reads the id from a {"data": <id>} success body. The id may be a
// JSON number or a numeric string.
func ParseID(body []byte) (int, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoID, err)
	}

	raw := bytes.TrimSpace(envelope.Data)
	if len(raw) == 0 {
		return 0, ErrNoID
	}

	var num json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoID, err)
	}
	switch t := v.(type) {
	case json.Number:
		num = t
	case string:
		num = json.Number(strings.TrimSpace(t))
	default:
		return 0, fmt.Errorf("%w: unexpected data %s", ErrNoID, raw)
	}

	id, err := strconv.Atoi(num.String())
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoID, raw)
	}
	return id, nil
}

// metricLabel drops path ids so the label set stays small
func metricLabel(endpoint string) string {
	if i := strings.IndexByte(endpoint, '/'); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}
