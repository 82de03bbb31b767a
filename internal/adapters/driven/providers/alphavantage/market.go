package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

type dailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

type incomeStatement struct {
	FiscalDateEnding string `json:"fiscalDateEnding"`
	TotalRevenue     string `json:"totalRevenue"`
	NetIncome        string `json:"netIncome"`
	GrossProfit      string `json:"grossProfit"`
	OperatingIncome  string `json:"operatingIncome"`
}

type indicatorObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// FetchPriceSeries returns the full daily history for symbol, ascending.
// Rows without a parseable close are skipped.
func (c *Client) FetchPriceSeries(ctx context.Context, symbol string) ([]domain.PriceBar, error) {
	payload, err := c.query(ctx, url.Values{
		"function":   {"TIME_SERIES_DAILY"},
		"symbol":     {symbol},
		"outputsize": {"full"},
	})
	if err != nil {
		return nil, fmt.Errorf("%s daily prices: %w", symbol, err)
	}

	raw, ok := payload["Time Series (Daily)"]
	if !ok {
		return nil, fmt.Errorf("%w: %s: no daily time series in response", domain.ErrProvider, symbol)
	}
	var series map[string]dailyBar
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, fmt.Errorf("%w: %s: decode time series: %w", domain.ErrProvider, symbol, err)
	}

	bars := make([]domain.PriceBar, 0, len(series))
	for date, row := range series {
		day, err := time.Parse(domain.DateLayout, date)
		if err != nil {
			continue
		}
		closePrice := parseNumber(row.Close)
		if closePrice == nil {
			continue
		}
		bars = append(bars, domain.PriceBar{
			Symbol: strings.ToUpper(symbol),
			Date:   day,
			Open:   valueOr(parseNumber(row.Open), 0),
			High:   valueOr(parseNumber(row.High), 0),
			Low:    valueOr(parseNumber(row.Low), 0),
			Close:  *closePrice,
			Volume: int64(valueOr(parseNumber(row.Volume), 0)),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// FetchFinancialStatements returns the quarterly income statements for symbol.
// Amounts reported as "None" are left nil.
func (c *Client) FetchFinancialStatements(ctx context.Context, symbol string) ([]domain.FinancialReport, error) {
	payload, err := c.query(ctx, url.Values{
		"function": {"INCOME_STATEMENT"},
		"symbol":   {symbol},
	})
	if err != nil {
		return nil, fmt.Errorf("%s income statement: %w", symbol, err)
	}

	raw, ok := payload["quarterlyReports"]
	if !ok {
		return nil, nil
	}
	var statements []incomeStatement
	if err := json.Unmarshal(raw, &statements); err != nil {
		return nil, fmt.Errorf("%w: %s: decode quarterly reports: %w", domain.ErrProvider, symbol, err)
	}

	reports := make([]domain.FinancialReport, 0, len(statements))
	for _, st := range statements {
		fiscal, err := time.Parse(domain.DateLayout, st.FiscalDateEnding)
		if err != nil {
			continue
		}
		reports = append(reports, domain.FinancialReport{
			Symbol:          strings.ToUpper(symbol),
			FiscalDate:      fiscal,
			TotalRevenue:    parseNumber(st.TotalRevenue),
			NetIncome:       parseNumber(st.NetIncome),
			GrossProfit:     parseNumber(st.GrossProfit),
			OperatingIncome: parseNumber(st.OperatingIncome),
		})
	}
	return reports, nil
}

// FetchIndicatorSeries returns observations for an economic function such as CPI.
func (c *Client) FetchIndicatorSeries(ctx context.Context, name string) ([]domain.IndicatorPoint, error) {
	payload, err := c.query(ctx, url.Values{"function": {name}})
	if err != nil {
		return nil, fmt.Errorf("%s indicator: %w", name, err)
	}

	var unit string
	if raw, ok := payload["unit"]; ok {
		unit = rawString(raw)
	}
	raw, ok := payload["data"]
	if !ok {
		return nil, nil
	}
	var observations []indicatorObservation
	if err := json.Unmarshal(raw, &observations); err != nil {
		return nil, fmt.Errorf("%w: %s: decode data: %w", domain.ErrProvider, name, err)
	}

	points := make([]domain.IndicatorPoint, 0, len(observations))
	for _, o := range observations {
		day, err := time.Parse(domain.DateLayout, o.Date)
		if err != nil {
			continue
		}
		points = append(points, domain.IndicatorPoint{
			Indicator: name,
			Date:      day,
			Value:     parseNumber(o.Value),
			Unit:      unit,
		})
	}
	return points, nil
}

// parseNumber returns nil for blanks and provider placeholders ("None", ".").
func parseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "", "None", ".", "-":
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
