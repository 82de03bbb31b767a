package domain

import (
	"fmt"
	"time"
)

// DefaultDegree is the polynomial degree used for price trend fitting.
const DefaultDegree = 8

// PricePoint is one closing price.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is an ascending sequence of closing prices for one symbol.
type PriceSeries []PricePoint

// Validate checks that dates are strictly increasing.
func (s PriceSeries) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Date.After(s[i-1].Date) {
			return fmt.Errorf("%w: price dates not strictly increasing at %s",
				ErrInvalidInput, s[i].Date.Format(DateLayout))
		}
	}
	return nil
}

// Between returns the points whose date falls in [start, end], inclusive.
func (s PriceSeries) Between(start, end time.Time) PriceSeries {
	var out PriceSeries
	for _, p := range s {
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Closes returns the closing prices in order.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Close
	}
	return out
}

// Prediction is a single extrapolated point.
type Prediction struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// RegressionResult is the outcome of one polynomial trend fit.
// Coefficients apply to powers of (day offset / DayScale), lowest power first.
// RSquared is NaN when the series has zero variance.
type RegressionResult struct {
	Symbol       string      `json:"symbol"`
	Degree       int         `json:"degree"`
	Series       PriceSeries `json:"series"`
	Fitted       []float64   `json:"fitted"`
	Coefficients []float64   `json:"coefficients"`
	DayScale     float64     `json:"day_scale"`
	RSquared     float64     `json:"r_squared"`
	Predicted    Prediction  `json:"predicted"`
}

// TechnicalIndicators summarises a price series.
// Nil fields mean there was not enough history, not an error.
type TechnicalIndicators struct {
	Points        int      `json:"points"`
	Volatility    *float64 `json:"volatility"`
	AverageReturn *float64 `json:"average_return"`
	MA20          *float64 `json:"ma20"`
	MA50          *float64 `json:"ma50"`
	MaxDrawdown   *float64 `json:"max_drawdown"`
}

// IsEmpty reports whether no indicator could be computed.
func (t TechnicalIndicators) IsEmpty() bool {
	return t.Points == 0
}
