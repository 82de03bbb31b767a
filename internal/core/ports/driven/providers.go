package driven

import (
	"context"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

// MarketDataProvider fetches prices, statements and macroeconomic series.
//
// Rate-limit and transient failures surface as errors that satisfy
// RetryableError so callers can apply their retry policy.
type MarketDataProvider interface {
	// FetchPriceSeries returns daily bars for a symbol, ascending.
	FetchPriceSeries(ctx context.Context, symbol string) ([]domain.PriceBar, error)

	// FetchFinancialStatements returns quarterly reports for a symbol.
	FetchFinancialStatements(ctx context.Context, symbol string) ([]domain.FinancialReport, error)

	// FetchIndicatorSeries returns observations of a named indicator.
	FetchIndicatorSeries(ctx context.Context, name string) ([]domain.IndicatorPoint, error)
}

// NewsProvider fetches recent articles for a topic.
type NewsProvider interface {
	// FetchArticles returns articles on topic published within the last windowDays.
	FetchArticles(ctx context.Context, topic string, windowDays int) ([]domain.NewsArticle, error)
}

// ArticleExtractor retrieves the readable full text of a web page.
type ArticleExtractor interface {
	// Extract returns the main text content at url.
	Extract(ctx context.Context, url string) (string, error)
}

// RetryableError is implemented by provider errors that may succeed on retry
// (HTTP 429, 5xx, throttling notes).
type RetryableError interface {
	error
	Retryable() bool
}
