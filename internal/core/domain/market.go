package domain

import "time"

// DateLayout is the calendar date format used across stores, prompts and reports.
const DateLayout = "2006-01-02"

// PriceBar is one daily OHLCV row for a symbol.
type PriceBar struct {
	Symbol string    `json:"symbol" validate:"required,uppercase"`
	Date   time.Time `json:"date" validate:"required"`
	Open   float64   `json:"open" validate:"gte=0"`
	High   float64   `json:"high" validate:"gte=0"`
	Low    float64   `json:"low" validate:"gte=0"`
	Close  float64   `json:"close" validate:"gte=0"`
	Volume int64     `json:"volume" validate:"gte=0"`
}

// FinancialReport is one quarterly income statement.
// Nil amounts were not reported by the provider.
type FinancialReport struct {
	Symbol          string    `json:"symbol" validate:"required,uppercase"`
	FiscalDate      time.Time `json:"fiscal_date" validate:"required"`
	TotalRevenue    *float64  `json:"total_revenue,omitempty"`
	NetIncome       *float64  `json:"net_income,omitempty"`
	GrossProfit     *float64  `json:"gross_profit,omitempty"`
	OperatingIncome *float64  `json:"operating_income,omitempty"`
}

// IndicatorPoint is one observation of a macroeconomic indicator.
type IndicatorPoint struct {
	Indicator string    `json:"indicator" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Value     *float64  `json:"value,omitempty"`
	Unit      string    `json:"unit,omitempty"`
}

// NewsArticle is one article fetched for a topic.
type NewsArticle struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
	PublishedAt time.Time `json:"published_at" validate:"required"`
	Source      string    `json:"source,omitempty"`
	URL         string    `json:"url" validate:"required,startswith=http"`
	Topic       string    `json:"topic" validate:"required"`
}

// Float returns a pointer to v. Used for optional amounts.
func Float(v float64) *float64 {
	return &v
}
