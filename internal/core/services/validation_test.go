package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

func TestRecordValidator(t *testing.T) {
	v := NewRecordValidator()

	good := domain.PriceBar{Symbol: "AAPL", Date: day("2024-01-02"), Close: 180}
	assert.NoError(t, v.Validate(&good))

	tests := []struct {
		name string
		rec  any
	}{
		{"lowercase symbol", &domain.PriceBar{Symbol: "aapl", Date: day("2024-01-02")}},
		{"negative close", &domain.PriceBar{Symbol: "AAPL", Date: day("2024-01-02"), Close: -1}},
		{"missing date", &domain.PriceBar{Symbol: "AAPL"}},
		{"report without symbol", &domain.FinancialReport{FiscalDate: day("2024-03-31")}},
		{"indicator without name", &domain.IndicatorPoint{Date: day("2024-01-01")}},
		{"article with bad url", &domain.NewsArticle{
			Title: "t", URL: "ftp://x", Topic: "a", PublishedAt: day("2024-01-01"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.rec)
			assert.True(t, errors.Is(err, domain.ErrValidation), "%v", err)
		})
	}
}

func TestFilterValid(t *testing.T) {
	v := NewRecordValidator()
	bars := []domain.PriceBar{
		{Symbol: "AAPL", Date: day("2024-01-02"), Close: 1},
		{Symbol: "", Date: day("2024-01-03"), Close: 1},
		{Symbol: "AAPL", Date: day("2024-01-04"), Close: 2},
	}

	valid, dropped := FilterValid(v, "price", bars)

	assert.Len(t, valid, 2)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, day("2024-01-04"), valid[1].Date)
}
