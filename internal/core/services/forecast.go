package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
	"github.com/custodia-labs/finrag/internal/core/ports/driving"
	"github.com/custodia-labs/finrag/internal/logger"
)

// Ensure ForecastService implements the interface.
var _ driving.ForecastService = (*ForecastService)(nil)

// Moving average windows.
const (
	shortWindow = 20
	longWindow  = 50
)

const hoursPerDay = 24

// ForecastService fits price trends and computes technical indicators.
type ForecastService struct {
	prices driven.PriceStore
}

// NewForecastService creates a forecast service over the price store.
func NewForecastService(prices driven.PriceStore) *ForecastService {
	return &ForecastService{prices: prices}
}

// Forecast fits a polynomial trend to the symbol's closes within the optional
// range and extrapolates one day past the last observation. Returns nil when
// the series, or its filtered window, is empty.
func (s *ForecastService) Forecast(
	ctx context.Context, symbol string, start, end *time.Time, degree int,
) (*domain.RegressionResult, error) {
	logger.Section("Forecast: " + symbol)

	series, err := s.load(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		logger.Warn("No price data for %s in requested range", symbol)
		return nil, nil
	}

	result, err := FitPolynomial(symbol, series, degree)
	if err != nil {
		return nil, fmt.Errorf("forecast %s: %w", symbol, err)
	}
	logger.Info("Fitted degree-%d trend over %d points, r2=%.4f", result.Degree, len(series), result.RSquared)
	return result, nil
}

// TechnicalIndicators summarises the symbol's closes within the optional range.
func (s *ForecastService) TechnicalIndicators(
	ctx context.Context, symbol string, start, end *time.Time,
) (domain.TechnicalIndicators, error) {
	series, err := s.load(ctx, symbol, start, end)
	if err != nil {
		return domain.TechnicalIndicators{}, err
	}
	if len(series) == 0 {
		logger.Warn("No price data for %s, indicators unavailable", symbol)
	}
	return ComputeIndicators(series), nil
}

func (s *ForecastService) load(ctx context.Context, symbol string, start, end *time.Time) (domain.PriceSeries, error) {
	if symbol == "" {
		return nil, fmt.Errorf("forecast: %w: empty symbol", domain.ErrInvalidInput)
	}
	series, err := s.prices.PriceSeries(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("load prices %s: %w", symbol, err)
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("load prices %s: %w", symbol, err)
	}
	if len(series) == 0 {
		return nil, nil
	}

	lo := series[0].Date
	hi := series[len(series)-1].Date
	if start != nil {
		lo = *start
	}
	if end != nil {
		hi = *end
	}
	if start != nil || end != nil {
		series = series.Between(lo, hi)
	}
	return series, nil
}

// FitPolynomial fits close = p(day offset) by least squares with a polynomial
// of the given degree and predicts the close one day after the last point.
//
// Offsets are scaled into [0, 1] before building the Vandermonde matrix; the
// fit is solved through a thin SVD, which yields the minimum-norm solution
// when the series is shorter than degree+1.
func FitPolynomial(symbol string, series domain.PriceSeries, degree int) (*domain.RegressionResult, error) {
	if len(series) == 0 {
		return nil, domain.ErrForecastUnavailable
	}
	if degree < 0 {
		return nil, fmt.Errorf("%w: degree %d", domain.ErrInvalidInput, degree)
	}

	n := len(series)
	origin := series[0].Date
	days := make([]float64, n)
	for i, p := range series {
		days[i] = math.Round(p.Date.Sub(origin).Hours() / hoursPerDay)
	}
	maxDay := days[n-1]
	scale := maxDay
	if scale == 0 {
		scale = 1
	}

	cols := degree + 1
	a := mat.NewDense(n, cols, nil)
	for i, d := range days {
		u := d / scale
		v := 1.0
		for j := 0; j < cols; j++ {
			a.Set(i, j, v)
			v *= u
		}
	}
	closes := series.Closes()
	y := mat.NewVecDense(n, closes)

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, errors.New("polynomial fit: SVD factorization failed")
	}
	rcond := float64(max(n, cols)) * 2.220446049250313e-16
	var coef mat.VecDense
	svd.SolveVecTo(&coef, y, svd.Rank(rcond))

	coefficients := make([]float64, cols)
	for j := range coefficients {
		coefficients[j] = coef.AtVec(j)
	}

	fitted := make([]float64, n)
	for i, d := range days {
		fitted[i] = evalPolynomial(coefficients, d/scale)
	}

	last := series[n-1]
	return &domain.RegressionResult{
		Symbol:       symbol,
		Degree:       degree,
		Series:       series,
		Fitted:       fitted,
		Coefficients: coefficients,
		DayScale:     scale,
		RSquared:     rSquared(fitted, closes),
		Predicted: domain.Prediction{
			Date:  last.Date.AddDate(0, 0, 1),
			Value: evalPolynomial(coefficients, (maxDay+1)/scale),
		},
	}, nil
}

// evalPolynomial evaluates coefficients (lowest power first) at u.
func evalPolynomial(coefficients []float64, u float64) float64 {
	var v float64
	for j := len(coefficients) - 1; j >= 0; j-- {
		v = v*u + coefficients[j]
	}
	return v
}

// rSquared is the coefficient of determination. It is NaN when the observed
// values have zero variance.
func rSquared(fitted, observed []float64) float64 {
	constant := true
	for _, v := range observed[1:] {
		if v != observed[0] {
			constant = false
			break
		}
	}
	if constant {
		return math.NaN()
	}
	return stat.RSquaredFrom(fitted, observed, nil)
}

// ComputeIndicators derives volatility, average return, moving averages and
// maximum drawdown from a price series. An empty series yields an empty result.
func ComputeIndicators(series domain.PriceSeries) domain.TechnicalIndicators {
	ind := domain.TechnicalIndicators{Points: len(series)}
	if len(series) == 0 {
		return ind
	}
	closes := series.Closes()

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	switch {
	case len(returns) >= 2:
		ind.Volatility = domain.Float(stat.StdDev(returns, nil))
		ind.AverageReturn = domain.Float(stat.Mean(returns, nil))
	case len(returns) == 1:
		ind.Volatility = domain.Float(0)
		ind.AverageReturn = domain.Float(returns[0])
	}

	if len(closes) >= shortWindow {
		ind.MA20 = domain.Float(stat.Mean(closes[len(closes)-shortWindow:], nil))
	}
	if len(closes) >= longWindow {
		ind.MA50 = domain.Float(stat.Mean(closes[len(closes)-longWindow:], nil))
	}

	drawdown := 0.0
	peak := closes[0]
	for _, c := range closes {
		if c > peak {
			peak = c
		}
		if peak > 0 {
			drawdown = math.Min(drawdown, (c-peak)/peak)
		}
	}
	ind.MaxDrawdown = domain.Float(drawdown)

	return ind
}
