// Package datagov fetches records from the data.gov.in open-data API and
// decodes them into typed raw records.
package datagov

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the resource endpoint of the public API.
const DefaultBaseURL = "https://api.data.gov.in/resource"

// ErrNoRecords is returned when a response has no "records" array.
var ErrNoRecords = errors.New("response has no records")

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unexpected status %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// Client is a minimal data.gov.in resource client. It performs one GET per
// Fetch and never retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// NewClient returns a client bounded by the given timeout.
func NewClient(apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// NewClientWithBaseURL allows injecting a custom base URL (used in tests).
func NewClientWithBaseURL(apiKey string, timeout time.Duration, baseURL string, logger *zap.Logger) *Client {
	c := NewClient(apiKey, timeout, logger)
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

type envelope struct {
	Records *[]json.RawMessage `json:"records"`
}

// Fetch retrieves up to limit records of the given resource.
func (c *Client) Fetch(ctx context.Context, resourceID string, limit int) ([]json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, errors.New("data.gov.in api key is missing")
	}
	if strings.TrimSpace(resourceID) == "" {
		return nil, errors.New("resource id cannot be empty")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("invalid limit: %d", limit)
	}
	q := url.Values{}
	q.Set("api-key", c.apiKey)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(limit))
	endpoint := c.baseURL + "/" + url.PathEscape(resourceID) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Info("fetching resource", zap.String("resource_id", resourceID), zap.Int("limit", limit))
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", resourceID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(b))}
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode %s: %w", resourceID, err)
	}
	if env.Records == nil {
		return nil, fmt.Errorf("%s: %w", resourceID, ErrNoRecords)
	}
	c.logger.Info("fetched resource",
		zap.String("resource_id", resourceID),
		zap.Int("records", len(*env.Records)),
		zap.Duration("took", time.Since(start)))
	return *env.Records, nil
}
