// Package newsapi implements driven.NewsProvider against the NewsAPI
// "everything" endpoint.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.NewsProvider = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL  = "https://newsapi.org/v2/everything"
	DefaultPageSize = 20
	DefaultTimeout  = 30 * time.Second
)

// Config holds configuration for the NewsAPI client.
type Config struct {
	APIKey   string
	BaseURL  string
	PageSize int
	Timeout  time.Duration
	// Now overrides the clock used for the from/to window. Tests only.
	Now func() time.Time
}

// Client fetches articles from NewsAPI.
type Client struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	pageSize int
	now      func() time.Time
	limiter  *rate.Limiter
}

// APIError describes a failed NewsAPI request.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("newsapi: status %d: %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("newsapi: status %d: %s", e.Status, e.Message)
}

// Retryable reports whether the request may succeed later.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// Unwrap maps the error onto domain sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrUnauthorized
	default:
		return domain.ErrProvider
	}
}

// NewClient creates a NewsAPI client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: newsapi API key is required", domain.ErrInvalidInput)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PageSize <= 0 || cfg.PageSize > 100 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		now:      cfg.Now,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 2),
	}, nil
}

type everythingResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// FetchArticles returns the first page of English articles on topic
// published within the last windowDays, newest first.
func (c *Client) FetchArticles(ctx context.Context, topic string, windowDays int) ([]domain.NewsArticle, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("%w: empty topic", domain.ErrInvalidInput)
	}
	if windowDays <= 0 {
		windowDays = domain.DefaultNewsWindowDays
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	today := c.now().UTC()
	params := url.Values{
		"q":        {topic},
		"language": {"en"},
		"sortBy":   {"publishedAt"},
		"pageSize": {strconv.Itoa(c.pageSize)},
		"page":     {"1"},
		"from":     {today.AddDate(0, 0, -windowDays).Format(domain.DateLayout)},
		"to":       {today.Format(domain.DateLayout)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
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

	var payload everythingResponse
	decodeErr := json.Unmarshal(body, &payload)
	if resp.StatusCode != http.StatusOK || payload.Status == "error" {
		apiErr := &APIError{Status: resp.StatusCode, Code: payload.Code, Message: payload.Message}
		if apiErr.Code == "rateLimited" {
			apiErr.Status = http.StatusTooManyRequests
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decode articles: %w", domain.ErrProvider, decodeErr)
	}

	articles := make([]domain.NewsArticle, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		published, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			continue
		}
		articles = append(articles, domain.NewsArticle{
			Title:       strings.TrimSpace(a.Title),
			Description: strings.TrimSpace(a.Description),
			Content:     strings.TrimSpace(a.Content),
			PublishedAt: published.UTC(),
			Source:      a.Source.Name,
			URL:         a.URL,
			Topic:       topic,
		})
	}
	return articles, nil
}
