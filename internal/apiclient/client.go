package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gcsguardian/guardian/internal/models"
	"github.com/google/uuid"
)

// DefaultTimeout bounds a single backend call. Reasoning calls are slow.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// Backend paths.
const (
	pathHistoryScan = "/history/scan/"
	pathScan        = "/scan/"
	pathReason      = "/ai/reason/from-scan"
)

// ErrUnauthorized is returned for HTTP 401 and 403 from any call.
var ErrUnauthorized = errors.New("unauthorized (token expired or invalid)")

// StatusError is a non-success HTTP status other than 401/403.
type StatusError struct {
	Endpoint string
	Method   string
	Path     string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s endpoint returned %d", e.Endpoint, e.Code)
}

// NotFound reports the statuses the scan loader treats as "try the next
// endpoint": 404 and 405.
func (e *StatusError) NotFound() bool {
	return e.Code == http.StatusNotFound || e.Code == http.StatusMethodNotAllowed
}

// Client talks to the Guardian backend with bearer authorization.
type Client struct {
	baseURL    string
	token      func() string
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
	newID      func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates an API client. token is called once per request so a
// refreshed token is picked up without rebuilding the client.
func New(baseURL string, token func() string, opts ...Option) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  "guardian",
		logger:     slog.Default(),
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ScanPaths returns the candidate paths for a scan, primary first.
func ScanPaths(scanID string) []string {
	id := url.PathEscape(scanID)
	return []string{pathHistoryScan + id, pathScan + id}
}

// GetScan fetches one scan candidate path and returns the raw body.
func (c *Client) GetScan(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, "scan", http.MethodGet, path, nil)
}

// Reason posts a bucket record to the reasoning endpoint and decodes the plan.
func (c *Client) Reason(ctx context.Context, rec models.BucketRecord) (*models.RemediationPlan, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal bucket record: %w", err)
	}

	resp, err := c.do(ctx, "AI", http.MethodPost, pathReason, body)
	if err != nil {
		return nil, err
	}

	plan, err := models.ParseRemediationPlan(resp)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Ping checks that the backend answers at all. Any status below 500 counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("backend unhealthy (HTTP %d)", resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := c.newID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token())
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("backend request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Endpoint: endpoint, Method: method, Path: path, Code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}
	if len(data) > maxResponseBytes {
		return nil, fmt.Errorf("%s response exceeds %d bytes", endpoint, maxResponseBytes)
	}
	return data, nil
}
