package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
	"github.com/custodia-labs/finrag/internal/core/ports/driving"
	"github.com/custodia-labs/finrag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// minArticleContent is the content length below which full-text enrichment is attempted.
const minArticleContent = 300

// IngestService fetches provider data, validates it and stores it.
type IngestService struct {
	market    driven.MarketDataProvider
	news      driven.NewsProvider
	extractor driven.ArticleExtractor
	store     driven.RecordStore
	validator *RecordValidator
	retry     RetryPolicy
	cfg       domain.IngestSettings
}

// NewIngestService creates an ingestion service. Either provider may be nil,
// in which case its sources are skipped.
func NewIngestService(
	market driven.MarketDataProvider,
	news driven.NewsProvider,
	store driven.RecordStore,
	retry RetryPolicy,
	cfg domain.IngestSettings,
) *IngestService {
	if cfg.Workers <= 0 {
		cfg.Workers = domain.DefaultIngestWorkers
	}
	if cfg.NewsWindowDays <= 0 {
		cfg.NewsWindowDays = domain.DefaultNewsWindowDays
	}
	return &IngestService{
		market:    market,
		news:      news,
		store:     store,
		validator: NewRecordValidator(),
		retry:     retry,
		cfg:       cfg,
	}
}

// SetArticleExtractor enables full-text enrichment of short articles.
func (s *IngestService) SetArticleExtractor(e driven.ArticleExtractor) {
	s.extractor = e
}

// ingestRun carries the mutable state of one Run.
type ingestRun struct {
	mu      sync.Mutex
	summary *domain.IngestSummary
	errs    []error
}

func (r *ingestRun) count(src domain.IngestSource, fetched, stored, dropped int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.summary.Counts[src]
	c.Fetched += fetched
	c.Stored += stored
	c.Dropped += dropped
}

func (r *ingestRun) fail(src domain.IngestSource, key string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := fmt.Sprintf("%s %s: %v", src, key, err)
	r.summary.Failures = append(r.summary.Failures, msg)
	r.errs = append(r.errs, fmt.Errorf("%s %s: %w", src, key, err))
	logger.Warn("Ingest %s", msg)
}

// Run fetches the requested sources. Records failing validation are dropped
// and logged; provider failures are collected and returned together, wrapped
// in domain.ErrProvider, after everything else has been stored.
func (s *IngestService) Run(ctx context.Context, req domain.IngestRequest) (*domain.IngestSummary, error) {
	logger.Section("Ingestion")

	req = s.withDefaults(req)
	run := &ingestRun{summary: &domain.IngestSummary{Counts: make(map[domain.IngestSource]*domain.IngestCounts)}}
	for _, src := range req.Sources {
		run.summary.Counts[src] = &domain.IngestCounts{}
	}

	for _, src := range req.Sources {
		if err := ctx.Err(); err != nil {
			return run.summary, err
		}
		switch src {
		case domain.IngestPrices:
			s.forEachSymbol(ctx, req.Symbols, func(ctx context.Context, sym string) {
				s.ingestPrices(ctx, run, sym)
			})
		case domain.IngestReports:
			s.forEachSymbol(ctx, req.Symbols, func(ctx context.Context, sym string) {
				s.ingestReports(ctx, run, sym)
			})
		case domain.IngestIndicators:
			for _, name := range req.Indicators {
				s.ingestIndicator(ctx, run, name)
			}
		case domain.IngestNews:
			for _, topic := range req.Topics {
				s.ingestNews(ctx, run, topic)
			}
		default:
			return run.summary, fmt.Errorf("%w: ingest source %q", domain.ErrInvalidInput, src)
		}
	}

	if len(run.errs) > 0 {
		return run.summary, fmt.Errorf("%w: %w", domain.ErrProvider, errors.Join(run.errs...))
	}
	return run.summary, nil
}

func (s *IngestService) withDefaults(req domain.IngestRequest) domain.IngestRequest {
	if len(req.Symbols) == 0 {
		req.Symbols = s.cfg.Symbols
	}
	if len(req.Topics) == 0 {
		req.Topics = s.cfg.Topics
	}
	if len(req.Indicators) == 0 {
		req.Indicators = s.cfg.Indicators
	}
	if len(req.Sources) == 0 {
		req.Sources = domain.AllIngestSources()
	}
	return req
}

// forEachSymbol runs fn for every symbol on a bounded pool of workers.
func (s *IngestService) forEachSymbol(ctx context.Context, symbols []string, fn func(context.Context, string)) {
	sem := make(chan struct{}, s.cfg.Workers)
	var wg sync.WaitGroup
	for _, sym := range symbols {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(ctx, sym)
		}(sym)
	}
	wg.Wait()
}

func (s *IngestService) ingestPrices(ctx context.Context, run *ingestRun, symbol string) {
	if s.market == nil {
		run.fail(domain.IngestPrices, symbol, errors.New("market data provider not configured"))
		return
	}
	bars, err := Retry(ctx, s.retry, "fetch prices "+symbol, func(ctx context.Context) ([]domain.PriceBar, error) {
		return s.market.FetchPriceSeries(ctx, symbol)
	})
	if err != nil {
		run.fail(domain.IngestPrices, symbol, err)
		return
	}
	valid, dropped := FilterValid(s.validator, "price", bars)
	if err := s.store.SavePrices(ctx, valid); err != nil {
		run.fail(domain.IngestPrices, symbol, fmt.Errorf("store: %w", err))
		return
	}
	run.count(domain.IngestPrices, len(bars), len(valid), dropped)
	logger.Info("Stored %d price bars for %s", len(valid), symbol)
}

func (s *IngestService) ingestReports(ctx context.Context, run *ingestRun, symbol string) {
	if s.market == nil {
		run.fail(domain.IngestReports, symbol, errors.New("market data provider not configured"))
		return
	}
	reports, err := Retry(ctx, s.retry, "fetch reports "+symbol, func(ctx context.Context) ([]domain.FinancialReport, error) {
		return s.market.FetchFinancialStatements(ctx, symbol)
	})
	if err != nil {
		run.fail(domain.IngestReports, symbol, err)
		return
	}
	valid, dropped := FilterValid(s.validator, "report", reports)
	if err := s.store.SaveReports(ctx, valid); err != nil {
		run.fail(domain.IngestReports, symbol, fmt.Errorf("store: %w", err))
		return
	}
	run.count(domain.IngestReports, len(reports), len(valid), dropped)
}

func (s *IngestService) ingestIndicator(ctx context.Context, run *ingestRun, name string) {
	if s.market == nil {
		run.fail(domain.IngestIndicators, name, errors.New("market data provider not configured"))
		return
	}
	points, err := Retry(ctx, s.retry, "fetch indicator "+name, func(ctx context.Context) ([]domain.IndicatorPoint, error) {
		return s.market.FetchIndicatorSeries(ctx, name)
	})
	if err != nil {
		run.fail(domain.IngestIndicators, name, err)
		return
	}
	valid, dropped := FilterValid(s.validator, "indicator", points)
	if err := s.store.SaveIndicators(ctx, valid); err != nil {
		run.fail(domain.IngestIndicators, name, fmt.Errorf("store: %w", err))
		return
	}
	run.count(domain.IngestIndicators, len(points), len(valid), dropped)
}

func (s *IngestService) ingestNews(ctx context.Context, run *ingestRun, topic string) {
	if s.news == nil {
		run.fail(domain.IngestNews, topic, errors.New("news provider not configured"))
		return
	}
	articles, err := Retry(ctx, s.retry, "fetch news "+topic, func(ctx context.Context) ([]domain.NewsArticle, error) {
		return s.news.FetchArticles(ctx, topic, s.cfg.NewsWindowDays)
	})
	if err != nil {
		run.fail(domain.IngestNews, topic, err)
		return
	}
	valid, dropped := FilterValid(s.validator, "news", articles)
	s.enrich(ctx, valid)
	if err := s.store.SaveArticles(ctx, valid); err != nil {
		run.fail(domain.IngestNews, topic, fmt.Errorf("store: %w", err))
		return
	}
	run.count(domain.IngestNews, len(articles), len(valid), dropped)
}

// enrich replaces truncated article content with the page's readable text.
func (s *IngestService) enrich(ctx context.Context, articles []domain.NewsArticle) {
	if s.extractor == nil || !s.cfg.FetchFullText {
		return
	}
	for i := range articles {
		a := &articles[i]
		if len(a.Content) >= minArticleContent {
			continue
		}
		text, err := s.extractor.Extract(ctx, a.URL)
		if err != nil {
			logger.Debug("Full text unavailable for %s: %v", a.URL, err)
			continue
		}
		if len(text) > len(a.Content) {
			a.Content = text
		}
	}
}
