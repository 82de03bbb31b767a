package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

// timestampLayout is fixed width so text comparison orders chronologically.
const timestampLayout = "2006-01-02T15:04:05Z"

// ==================== Prices ====================

// SavePrices upserts bars keyed by (symbol, date).
func (s *Store) SavePrices(ctx context.Context, bars []domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}
	return s.inTx(ctx, `
		INSERT INTO stock_prices (symbol, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume
	`, func(stmt *sql.Stmt) error {
		for _, b := range bars {
			if _, err := stmt.ExecContext(ctx, b.Symbol, formatDate(b.Date),
				b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
				return fmt.Errorf("saving price %s %s: %w", b.Symbol, formatDate(b.Date), err)
			}
		}
		return nil
	})
}

// PriceSeries returns the ascending closing prices for one symbol.
func (s *Store) PriceSeries(ctx context.Context, symbol string) (domain.PriceSeries, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT date, close FROM stock_prices WHERE symbol = ? ORDER BY date
	`), symbol)
	if err != nil {
		return nil, fmt.Errorf("querying prices: %w", err)
	}
	defer rows.Close()

	var series domain.PriceSeries
	for rows.Next() {
		var date string
		var p domain.PricePoint
		if err := rows.Scan(&date, &p.Close); err != nil {
			return nil, fmt.Errorf("scanning price: %w", err)
		}
		if p.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		series = append(series, p)
	}
	return series, rows.Err()
}

// AllPrices returns every bar ordered by symbol then date.
func (s *Store) AllPrices(ctx context.Context) ([]domain.PriceBar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, date, open, high, low, close, volume
		FROM stock_prices ORDER BY symbol, date
	`)
	if err != nil {
		return nil, fmt.Errorf("querying prices: %w", err)
	}
	defer rows.Close()

	var bars []domain.PriceBar
	for rows.Next() {
		var b domain.PriceBar
		var date string
		if err := rows.Scan(&b.Symbol, &date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scanning price: %w", err)
		}
		if b.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// ==================== Financial Reports ====================

// SaveReports upserts reports keyed by (symbol, fiscal date).
func (s *Store) SaveReports(ctx context.Context, reports []domain.FinancialReport) error {
	if len(reports) == 0 {
		return nil
	}
	return s.inTx(ctx, `
		INSERT INTO financial_reports (symbol, fiscal_date, total_revenue, net_income, gross_profit, operating_income)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, fiscal_date) DO UPDATE SET
			total_revenue = excluded.total_revenue,
			net_income = excluded.net_income,
			gross_profit = excluded.gross_profit,
			operating_income = excluded.operating_income
	`, func(stmt *sql.Stmt) error {
		for _, r := range reports {
			if _, err := stmt.ExecContext(ctx, r.Symbol, formatDate(r.FiscalDate),
				nullFloat(r.TotalRevenue), nullFloat(r.NetIncome),
				nullFloat(r.GrossProfit), nullFloat(r.OperatingIncome)); err != nil {
				return fmt.Errorf("saving report %s %s: %w", r.Symbol, formatDate(r.FiscalDate), err)
			}
		}
		return nil
	})
}

// AllReports returns every report ordered by symbol then fiscal date.
func (s *Store) AllReports(ctx context.Context) ([]domain.FinancialReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, fiscal_date, total_revenue, net_income, gross_profit, operating_income
		FROM financial_reports ORDER BY symbol, fiscal_date
	`)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.FinancialReport
	for rows.Next() {
		var r domain.FinancialReport
		var date string
		var revenue, income, gross, operating sql.NullFloat64
		if err := rows.Scan(&r.Symbol, &date, &revenue, &income, &gross, &operating); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		if r.FiscalDate, err = parseDate(date); err != nil {
			return nil, err
		}
		r.TotalRevenue = floatPtr(revenue)
		r.NetIncome = floatPtr(income)
		r.GrossProfit = floatPtr(gross)
		r.OperatingIncome = floatPtr(operating)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// ==================== Economic Indicators ====================

// SaveIndicators upserts points keyed by (indicator, date).
func (s *Store) SaveIndicators(ctx context.Context, points []domain.IndicatorPoint) error {
	if len(points) == 0 {
		return nil
	}
	return s.inTx(ctx, `
		INSERT INTO economic_indicators (indicator, date, value, unit)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (indicator, date) DO UPDATE SET
			value = excluded.value,
			unit = excluded.unit
	`, func(stmt *sql.Stmt) error {
		for _, p := range points {
			if _, err := stmt.ExecContext(ctx, p.Indicator, formatDate(p.Date),
				nullFloat(p.Value), p.Unit); err != nil {
				return fmt.Errorf("saving indicator %s %s: %w", p.Indicator, formatDate(p.Date), err)
			}
		}
		return nil
	})
}

// AllIndicators returns every point, newest first.
func (s *Store) AllIndicators(ctx context.Context) ([]domain.IndicatorPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT indicator, date, value, unit
		FROM economic_indicators ORDER BY date DESC, indicator
	`)
	if err != nil {
		return nil, fmt.Errorf("querying indicators: %w", err)
	}
	defer rows.Close()

	var points []domain.IndicatorPoint
	for rows.Next() {
		var p domain.IndicatorPoint
		var date string
		var value sql.NullFloat64
		if err := rows.Scan(&p.Indicator, &date, &value, &p.Unit); err != nil {
			return nil, fmt.Errorf("scanning indicator: %w", err)
		}
		if p.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		p.Value = floatPtr(value)
		points = append(points, p)
	}
	return points, rows.Err()
}

// ==================== News ====================

// SaveArticles upserts articles keyed by URL.
func (s *Store) SaveArticles(ctx context.Context, articles []domain.NewsArticle) error {
	if len(articles) == 0 {
		return nil
	}
	return s.inTx(ctx, `
		INSERT INTO news_articles (url, title, description, content, published_at, source, topic)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			content = excluded.content,
			published_at = excluded.published_at,
			source = excluded.source,
			topic = excluded.topic
	`, func(stmt *sql.Stmt) error {
		for _, a := range articles {
			if _, err := stmt.ExecContext(ctx, a.URL, a.Title, a.Description, a.Content,
				a.PublishedAt.UTC().Format(timestampLayout), a.Source, a.Topic); err != nil {
				return fmt.Errorf("saving article %s: %w", a.URL, err)
			}
		}
		return nil
	})
}

// AllArticles returns every article, newest first.
func (s *Store) AllArticles(ctx context.Context) ([]domain.NewsArticle, error) {
	return s.ArticlesSince(ctx, time.Time{})
}

// ArticlesSince returns articles published at or after t, newest first.
func (s *Store) ArticlesSince(ctx context.Context, t time.Time) ([]domain.NewsArticle, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT url, title, description, content, published_at, source, topic
		FROM news_articles WHERE published_at >= ?
		ORDER BY published_at DESC, url
	`), t.UTC().Format(timestampLayout))
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.NewsArticle
	for rows.Next() {
		var a domain.NewsArticle
		var published string
		if err := rows.Scan(&a.URL, &a.Title, &a.Description, &a.Content,
			&published, &a.Source, &a.Topic); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		if a.PublishedAt, err = time.Parse(timestampLayout, published); err != nil {
			return nil, fmt.Errorf("parsing published_at %q: %w", published, err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// ==================== Helpers ====================

func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return domain.Float(v.Float64)
}
