package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

// ForecastService fits price trends and computes technical indicators.
type ForecastService interface {
	// Forecast fits a polynomial of the given degree to the symbol's closes.
	// Returns nil (and no error) when there is no data in range.
	Forecast(ctx context.Context, symbol string, start, end *time.Time, degree int) (*domain.RegressionResult, error)

	// TechnicalIndicators summarises the closes within [start, end].
	// An empty series yields an empty result, not an error.
	TechnicalIndicators(ctx context.Context, symbol string, start, end *time.Time) (domain.TechnicalIndicators, error)
}
