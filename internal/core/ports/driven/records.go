package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

// PriceStore persists daily price bars.
type PriceStore interface {
	// SavePrices upserts bars keyed by (symbol, date).
	SavePrices(ctx context.Context, bars []domain.PriceBar) error

	// PriceSeries returns the ascending closing prices for one symbol.
	PriceSeries(ctx context.Context, symbol string) (domain.PriceSeries, error)

	// AllPrices returns every bar ordered by symbol then date.
	AllPrices(ctx context.Context) ([]domain.PriceBar, error)
}

// ReportStore persists quarterly financial reports.
type ReportStore interface {
	// SaveReports upserts reports keyed by (symbol, fiscal date).
	SaveReports(ctx context.Context, reports []domain.FinancialReport) error

	// AllReports returns every report ordered by symbol then fiscal date.
	AllReports(ctx context.Context) ([]domain.FinancialReport, error)
}

// IndicatorStore persists macroeconomic indicator observations.
type IndicatorStore interface {
	// SaveIndicators upserts points keyed by (indicator, date).
	SaveIndicators(ctx context.Context, points []domain.IndicatorPoint) error

	// AllIndicators returns every point, newest first.
	AllIndicators(ctx context.Context) ([]domain.IndicatorPoint, error)
}

// NewsStore persists news articles.
type NewsStore interface {
	// SaveArticles upserts articles keyed by URL.
	SaveArticles(ctx context.Context, articles []domain.NewsArticle) error

	// AllArticles returns every article, newest first.
	AllArticles(ctx context.Context) ([]domain.NewsArticle, error)

	// ArticlesSince returns articles published at or after t.
	ArticlesSince(ctx context.Context, t time.Time) ([]domain.NewsArticle, error)
}

// RecordStore groups the relational source stores.
type RecordStore interface {
	PriceStore
	ReportStore
	IndicatorStore
	NewsStore

	// Close releases resources.
	Close() error
}
