package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
)

// Source tags attached to derived text.
const (
	tagPriceSummary      = "stock_price_summary"
	tagEconomicIndicator = "economic_indicator"
	tagReportPrefix      = "report:"
	missingValue         = "N/A"
)

// BlockSource produces the text blocks for one domain.
type BlockSource interface {
	Blocks(ctx context.Context, d domain.Domain) ([]domain.TextBlock, error)
}

// TextDeriver turns the relational source records into text blocks.
type TextDeriver struct {
	prices     driven.PriceStore
	reports    driven.ReportStore
	indicators driven.IndicatorStore
	news       driven.NewsStore
}

// Ensure TextDeriver implements BlockSource.
var _ BlockSource = (*TextDeriver)(nil)

// NewTextDeriver creates a deriver over the given stores.
func NewTextDeriver(
	prices driven.PriceStore,
	reports driven.ReportStore,
	indicators driven.IndicatorStore,
	news driven.NewsStore,
) *TextDeriver {
	return &TextDeriver{prices: prices, reports: reports, indicators: indicators, news: news}
}

// Blocks loads the domain's records and derives their text.
func (t *TextDeriver) Blocks(ctx context.Context, d domain.Domain) ([]domain.TextBlock, error) {
	switch d {
	case domain.DomainNews:
		articles, err := t.news.AllArticles(ctx)
		if err != nil {
			return nil, fmt.Errorf("derive news: %w", err)
		}
		return DeriveNewsBlocks(articles), nil
	case domain.DomainFinancial:
		reports, err := t.reports.AllReports(ctx)
		if err != nil {
			return nil, fmt.Errorf("derive reports: %w", err)
		}
		return DeriveReportBlocks(reports), nil
	case domain.DomainEconomic:
		points, err := t.indicators.AllIndicators(ctx)
		if err != nil {
			return nil, fmt.Errorf("derive indicators: %w", err)
		}
		return DeriveIndicatorBlocks(points), nil
	case domain.DomainPrice:
		bars, err := t.prices.AllPrices(ctx)
		if err != nil {
			return nil, fmt.Errorf("derive prices: %w", err)
		}
		return DerivePriceSummaries(bars), nil
	default:
		return nil, fmt.Errorf("%w: domain %q", domain.ErrUnsupportedType, d)
	}
}

// DeriveNewsBlocks joins title, description and content of each article.
// Articles with no text are skipped.
func DeriveNewsBlocks(articles []domain.NewsArticle) []domain.TextBlock {
	blocks := make([]domain.TextBlock, 0, len(articles))
	for i := range articles {
		a := &articles[i]
		body := strings.TrimSpace(a.Title + "\n\n" + a.Description + "\n\n" + a.Content)
		if body == "" {
			continue
		}
		blocks = append(blocks, domain.TextBlock{
			Domain:    domain.DomainNews,
			Body:      body,
			SourceTag: a.Topic,
		})
	}
	return blocks
}

// DeriveReportBlocks renders each financial report as labelled lines.
func DeriveReportBlocks(reports []domain.FinancialReport) []domain.TextBlock {
	blocks := make([]domain.TextBlock, 0, len(reports))
	for i := range reports {
		r := &reports[i]
		var b strings.Builder
		fmt.Fprintf(&b, "Company: %s\n", r.Symbol)
		fmt.Fprintf(&b, "Fiscal Date: %s\n", r.FiscalDate.Format(domain.DateLayout))
		fmt.Fprintf(&b, "Total Revenue: %s\n", formatAmount(r.TotalRevenue))
		fmt.Fprintf(&b, "Net Income: %s\n", formatAmount(r.NetIncome))
		fmt.Fprintf(&b, "Gross Profit: %s\n", formatAmount(r.GrossProfit))
		fmt.Fprintf(&b, "Operating Income: %s", formatAmount(r.OperatingIncome))
		blocks = append(blocks, domain.TextBlock{
			Domain:    domain.DomainFinancial,
			Body:      b.String(),
			SourceTag: tagReportPrefix + r.Symbol,
		})
	}
	return blocks
}

// DeriveIndicatorBlocks renders each indicator observation.
func DeriveIndicatorBlocks(points []domain.IndicatorPoint) []domain.TextBlock {
	blocks := make([]domain.TextBlock, 0, len(points))
	for i := range points {
		p := &points[i]
		value := strings.TrimSpace(formatAmount(p.Value) + " " + p.Unit)
		body := fmt.Sprintf("Date: %s\nIndicator: %s\nValue: %s",
			p.Date.Format(domain.DateLayout), p.Indicator, value)
		blocks = append(blocks, domain.TextBlock{
			Domain:    domain.DomainEconomic,
			Body:      body,
			SourceTag: tagEconomicIndicator,
		})
	}
	return blocks
}

type quarterKey struct {
	symbol  string
	year    int
	quarter int
}

// DerivePriceSummaries writes one summary per symbol and calendar quarter,
// describing how the close moved from the first to the last trading day.
func DerivePriceSummaries(bars []domain.PriceBar) []domain.TextBlock {
	groups := make(map[quarterKey][]domain.PriceBar)
	for i := range bars {
		b := bars[i]
		k := quarterKey{symbol: b.Symbol, year: b.Date.Year(), quarter: quarterOf(b.Date)}
		groups[k] = append(groups[k], b)
	}

	keys := make([]quarterKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].symbol != keys[j].symbol {
			return keys[i].symbol < keys[j].symbol
		}
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].quarter < keys[j].quarter
	})

	blocks := make([]domain.TextBlock, 0, len(keys))
	for _, k := range keys {
		group := groups[k]
		sort.Slice(group, func(i, j int) bool { return group[i].Date.Before(group[j].Date) })
		first, last := group[0], group[len(group)-1]

		delta := last.Close - first.Close
		trend := "remained flat"
		switch {
		case delta > 0:
			trend = "increased"
		case delta < 0:
			trend = "decreased"
		}
		pct := 0.0
		if first.Close != 0 {
			pct = delta / first.Close * 100
		}

		body := fmt.Sprintf(
			"%s stock price summary for Q%d %d:\nFrom %s to %s, closing price %s from $%.2f to $%.2f (%.2f%% change).",
			k.symbol, k.quarter, k.year,
			first.Date.Format(domain.DateLayout), last.Date.Format(domain.DateLayout),
			trend, first.Close, last.Close, pct,
		)
		blocks = append(blocks, domain.TextBlock{
			Domain:    domain.DomainPrice,
			Body:      body,
			SourceTag: tagPriceSummary + ":" + k.symbol,
		})
	}
	return blocks
}

func quarterOf(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

func formatAmount(v *float64) string {
	if v == nil {
		return missingValue
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
