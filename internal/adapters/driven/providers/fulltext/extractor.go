// Package fulltext implements driven.ArticleExtractor by running the
// Readability algorithm over a fetched web page.
package fulltext

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
	"github.com/custodia-labs/finrag/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.ArticleExtractor = (*Extractor)(nil)

const (
	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 30 * time.Second

	maxPageBytes = 5 << 20
	userAgent    = "finrag/1.0 (+https://github.com/custodia-labs/finrag)"
)

// Extractor downloads pages and returns their main text.
type Extractor struct {
	http *http.Client
}

// NewExtractor creates an extractor. A zero timeout uses DefaultTimeout.
func NewExtractor(timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Extractor{http: &http.Client{Timeout: timeout}}
}

// Extract returns the readable text content at rawURL.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || (pageURL.Scheme != "http" && pageURL.Scheme != "https") {
		return "", fmt.Errorf("%w: not an http url: %q", domain.ErrInvalidInput, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch %s: %w", domain.ErrProvider, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: fetch %s: status %d", domain.ErrProvider, rawURL, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return "", fmt.Errorf("%w: %s is %s, not html", domain.ErrUnsupportedType, rawURL, ct)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageBytes), pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: parse %s: %w", domain.ErrProvider, rawURL, err)
	}

	text := strings.TrimSpace(article.TextContent)
	logger.Debug("readability: extracted %d chars from %s", len(text), rawURL)
	return text, nil
}
