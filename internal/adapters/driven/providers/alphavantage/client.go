// Package alphavantage implements driven.MarketDataProvider against the
// Alpha Vantage query API.
//
// Requests are throttled client-side with a token bucket. Throttling notices
// in a 200 response ("Note", "Information") and HTTP 429/5xx surface as
// *APIError values that report Retryable() == true.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.MarketDataProvider = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL           = "https://www.alphavantage.co/query"
	DefaultRequestsPerMinute = 30
	DefaultBurst             = 5
	DefaultTimeout           = 30 * time.Second
)

// Config holds configuration for the Alpha Vantage client.
type Config struct {
	// APIKey is the Alpha Vantage API key (required).
	APIKey string

	// BaseURL is the query endpoint (default: https://www.alphavantage.co/query).
	BaseURL string

	// RequestsPerMinute is the sustained client-side request rate.
	RequestsPerMinute float64

	// Burst is the token bucket size.
	Burst int

	// Timeout is the per-request timeout.
	Timeout time.Duration
}

// Client fetches market data from Alpha Vantage.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

// APIError describes a failed Alpha Vantage request.
type APIError struct {
	Status    int
	Message   string
	Throttled bool
}

func (e *APIError) Error() string {
	if e.Status != 0 && e.Status != http.StatusOK {
		return fmt.Sprintf("alphavantage: status %d: %s", e.Status, e.Message)
	}
	return "alphavantage: " + e.Message
}

// Retryable reports whether the request may succeed later.
func (e *APIError) Retryable() bool {
	return e.Throttled || e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// Unwrap maps the error onto domain sentinels.
func (e *APIError) Unwrap() error {
	switch {
	case e.Throttled || e.Status == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return domain.ErrUnauthorized
	default:
		return domain.ErrProvider
	}
}

// NewClient creates an Alpha Vantage client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: alphavantage API key is required", domain.ErrInvalidInput)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60), cfg.Burst),
	}, nil
}

// query performs one throttled GET and returns the top-level JSON object.
func (c *Client) query(ctx context.Context, params url.Values) (map[string]json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params.Set("apikey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &APIError{Status: http.StatusServiceUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Message: truncate(string(body), 200)}
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &APIError{Status: resp.StatusCode, Message: "decode response: " + err.Error()}
	}

	for _, key := range []string{"Note", "Information"} {
		if raw, ok := payload[key]; ok {
			return nil, &APIError{Status: resp.StatusCode, Message: rawString(raw), Throttled: true}
		}
	}
	if raw, ok := payload["Error Message"]; ok {
		return nil, &APIError{Status: resp.StatusCode, Message: rawString(raw)}
	}
	return payload, nil
}

func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw)
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

