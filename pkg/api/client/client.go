// Package client is a typed client for the site's JSON endpoints, used by
// the operator CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client provides typed access to the site API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the provided site base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://localhost:4002"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

// IsInvalidEmail reports whether err is the API's email shape rejection.
func IsInvalidEmail(err error) bool {
	var apiErr APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest
}

func (c *Client) do(ctx context.Context, method, path string, body any, v any, accept ...int) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest && !accepted(resp.StatusCode, accept) {
		return APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func accepted(status int, accept []int) bool {
	for _, code := range accept {
		if code == status {
			return true
		}
	}
	return false
}

func extractError(body io.Reader) string {
	if body == nil {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(payload.Error)
}

// Subscribe adds email to the waitlist and returns the confirmation message.
func (c *Client) Subscribe(ctx context.Context, email string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/subscribe", map[string]string{"email": email}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Train asks the site to start a manual training run. The result is one of
// "started", "queued" or "dropped".
func (c *Client) Train(ctx context.Context) (string, error) {
	var out struct {
		Result string `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/train", nil, &out, http.StatusTooManyRequests); err != nil {
		return "", err
	}
	return out.Result, nil
}

// Stats mirrors the deployed-agent stats payload.
type Stats struct {
	FTEDelta       int `json:"fte_delta"`
	SavingsPerYear int `json:"savings_per_year"`
}

// Entry mirrors one log entry payload.
type Entry struct {
	ID          int64      `json:"id"`
	AgentName   string     `json:"agent_name"`
	Steps       []string   `json:"steps"`
	CurrentStep int        `json:"current_step"`
	Phase       string     `json:"phase"`
	Deployed    bool       `json:"deployed"`
	Manual      bool       `json:"manual"`
	CreatedAt   time.Time  `json:"created_at"`
	Stats       *Stats     `json:"stats,omitempty"`
	DeployedAt  *time.Time `json:"deployed_at,omitempty"`
}

// Snapshot mirrors the /api/log payload.
type Snapshot struct {
	Generation uint64    `json:"generation"`
	TakenAt    time.Time `json:"taken_at"`
	Entries    []Entry   `json:"entries"`
}

// Snapshot fetches the current deployment log.
func (c *Client) Snapshot(ctx context.Context) (Snapshot, error) {
	var out Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/log", nil, &out); err != nil {
		return Snapshot{}, err
	}
	return out, nil
}
