package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

type symbolDate struct {
	key  string
	date time.Time
}

// RecordStore is an in-memory implementation of driven.RecordStore.
// Upserts follow the same natural keys as the SQL store.
type RecordStore struct {
	mu         sync.RWMutex
	prices     map[symbolDate]domain.PriceBar
	reports    map[symbolDate]domain.FinancialReport
	indicators map[symbolDate]domain.IndicatorPoint
	articles   map[string]domain.NewsArticle
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		prices:     make(map[symbolDate]domain.PriceBar),
		reports:    make(map[symbolDate]domain.FinancialReport),
		indicators: make(map[symbolDate]domain.IndicatorPoint),
		articles:   make(map[string]domain.NewsArticle),
	}
}

// SavePrices upserts bars keyed by (symbol, date).
func (s *RecordStore) SavePrices(_ context.Context, bars []domain.PriceBar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bars {
		s.prices[symbolDate{b.Symbol, b.Date}] = b
	}
	return nil
}

// PriceSeries returns the ascending closing prices for one symbol.
func (s *RecordStore) PriceSeries(ctx context.Context, symbol string) (domain.PriceSeries, error) {
	bars, err := s.AllPrices(ctx)
	if err != nil {
		return nil, err
	}
	var series domain.PriceSeries
	for _, b := range bars {
		if b.Symbol == symbol {
			series = append(series, domain.PricePoint{Date: b.Date, Close: b.Close})
		}
	}
	return series, nil
}

// AllPrices returns every bar ordered by symbol then date.
func (s *RecordStore) AllPrices(_ context.Context) ([]domain.PriceBar, error) {
	s.mu.RLock()
	out := make([]domain.PriceBar, 0, len(s.prices))
	for _, b := range s.prices {
		out = append(out, b)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// SaveReports upserts reports keyed by (symbol, fiscal date).
func (s *RecordStore) SaveReports(_ context.Context, reports []domain.FinancialReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range reports {
		s.reports[symbolDate{r.Symbol, r.FiscalDate}] = r
	}
	return nil
}

// AllReports returns every report ordered by symbol then fiscal date.
func (s *RecordStore) AllReports(_ context.Context) ([]domain.FinancialReport, error) {
	s.mu.RLock()
	out := make([]domain.FinancialReport, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, r)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].FiscalDate.Before(out[j].FiscalDate)
	})
	return out, nil
}

// SaveIndicators upserts points keyed by (indicator, date).
func (s *RecordStore) SaveIndicators(_ context.Context, points []domain.IndicatorPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		s.indicators[symbolDate{p.Indicator, p.Date}] = p
	}
	return nil
}

// AllIndicators returns every point, newest first.
func (s *RecordStore) AllIndicators(_ context.Context) ([]domain.IndicatorPoint, error) {
	s.mu.RLock()
	out := make([]domain.IndicatorPoint, 0, len(s.indicators))
	for _, p := range s.indicators {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].Indicator < out[j].Indicator
	})
	return out, nil
}

// SaveArticles upserts articles keyed by URL.
func (s *RecordStore) SaveArticles(_ context.Context, articles []domain.NewsArticle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range articles {
		s.articles[a.URL] = a
	}
	return nil
}

// AllArticles returns every article, newest first.
func (s *RecordStore) AllArticles(ctx context.Context) ([]domain.NewsArticle, error) {
	return s.ArticlesSince(ctx, time.Time{})
}

// ArticlesSince returns articles published at or after t, newest first.
func (s *RecordStore) ArticlesSince(_ context.Context, t time.Time) ([]domain.NewsArticle, error) {
	s.mu.RLock()
	out := make([]domain.NewsArticle, 0, len(s.articles))
	for _, a := range s.articles {
		if !a.PublishedAt.Before(t) {
			out = append(out, a)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		return out[i].URL < out[j].URL
	})
	return out, nil
}

// Close is a no-op.
func (s *RecordStore) Close() error {
	return nil
}
