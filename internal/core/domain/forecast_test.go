package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestPriceSeries_Validate(t *testing.T) {
	ok := PriceSeries{
		{Date: day("2024-01-02"), Close: 10},
		{Date: day("2024-01-03"), Close: 11},
	}
	assert.NoError(t, ok.Validate())
	assert.NoError(t, PriceSeries(nil).Validate())

	dup := PriceSeries{
		{Date: day("2024-01-02"), Close: 10},
		{Date: day("2024-01-02"), Close: 11},
	}
	err := dup.Validate()
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), "2024-01-02")
}

func TestPriceSeries_Between(t *testing.T) {
	s := PriceSeries{
		{Date: day("2024-01-01"), Close: 1},
		{Date: day("2024-01-05"), Close: 2},
		{Date: day("2024-01-10"), Close: 3},
	}

	got := s.Between(day("2024-01-01"), day("2024-01-05"))
	assert.Equal(t, []float64{1, 2}, got.Closes())

	assert.Empty(t, s.Between(day("2025-01-01"), day("2025-02-01")))
}

func TestTechnicalIndicators_IsEmpty(t *testing.T) {
	assert.True(t, TechnicalIndicators{}.IsEmpty())
	assert.False(t, TechnicalIndicators{Points: 1}.IsEmpty())
}
