package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

func fixedClock() time.Time {
	return time.Date(2024, 6, 30, 9, 0, 0, 0, time.UTC)
}

func TestDecodeParameters(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		symbol  string
		start   string
		end     string
		wantErr bool
	}{
		{
			name:   "full object",
			raw:    `{"symbol": "AAPL", "start_date": "2024-01-01", "end_date": "2024-03-31"}`,
			symbol: "AAPL", start: "2024-01-01", end: "2024-03-31",
		},
		{
			name:   "fenced with language tag",
			raw:    "```json\n{\"symbol\": \"MSFT\", \"start_date\": null, \"end_date\": null}\n```",
			symbol: "MSFT",
		},
		{
			name: "all null",
			raw:  `{"symbol": null, "start_date": null, "end_date": null}`,
		},
		{
			name: "empty strings are null",
			raw:  `{"symbol": "", "start_date": " ", "end_date": ""}`,
		},
		{name: "missing key", raw: `{"symbol": "AAPL", "start_date": null}`, wantErr: true},
		{
			name:   "extra key ignored",
			raw:    `{"symbol":"GOOGL","start_date":"2024-01-01","end_date":"2024-12-31","company":"Alphabet"}`,
			symbol: "GOOGL", start: "2024-01-01", end: "2024-12-31",
		},
		{
			name:   "timestamp dates",
			raw:    `{"symbol":"GOOGL","start_date":"2024-01-01T00:00:00Z","end_date":"2024-12-31T00:00:00Z"}`,
			symbol: "GOOGL", start: "2024-01-01", end: "2024-12-31",
		},
		{
			name:   "unparseable date keeps symbol",
			raw:    `{"symbol": "AAPL", "start_date": "01/02/2024", "end_date": "2024-03-31"}`,
			symbol: "AAPL", end: "2024-03-31",
		},
		{name: "wrong key", raw: `{"ticker": "AAPL", "start_date": null, "end_date": null}`, wantErr: true},
		{name: "number value", raw: `{"symbol": 42, "start_date": null, "end_date": null}`, wantErr: true},
		{name: "prose", raw: "The ticker is AAPL.", wantErr: true},
		{name: "trailing data", raw: `{"symbol": null, "start_date": null, "end_date": null} {}`, wantErr: true},
		{name: "array", raw: `[]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := DecodeParameters(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrExtraction))
				assert.True(t, params.IsEmpty())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.symbol, params.SymbolOrEmpty())
			assert.Equal(t, tt.start, domain.DateString(params.StartDate))
			assert.Equal(t, tt.end, domain.DateString(params.EndDate))
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("  {\"a\":1}  "))
}

func TestParameterExtractor_Parsed(t *testing.T) {
	llm := &mockLLM{reply: `{"symbol": "NVDA", "start_date": "2024-01-01", "end_date": "2024-02-01"}`}
	e := NewParameterExtractor(llm, nil)
	e.SetClock(fixedClock)

	res := e.ExtractDetailed(context.Background(), "How did Nvidia do in January 2024?")

	assert.Equal(t, domain.ExtractionParsed, res.Outcome)
	assert.False(t, res.DatesDefaulted)
	assert.Equal(t, "NVDA", res.Params.SymbolOrEmpty())
	assert.Equal(t, "2024-02-01", domain.DateString(res.Params.EndDate))
	assert.NoError(t, res.Err)
	assert.Contains(t, llm.lastPrompt(), "How did Nvidia do in January 2024?")
}

func TestParameterExtractor_DefaultsIncompleteDates(t *testing.T) {
	llm := &mockLLM{reply: `{"symbol": "AAPL", "start_date": "2024-01-01", "end_date": null}`}
	e := NewParameterExtractor(llm, nil)
	e.SetClock(fixedClock)

	res := e.ExtractDetailed(context.Background(), "Apple outlook")

	assert.True(t, res.DatesDefaulted)
	assert.Equal(t, "2023-07-01", domain.DateString(res.Params.StartDate))
	assert.Equal(t, "2024-06-30", domain.DateString(res.Params.EndDate))
}

func TestParameterExtractor_BadDateFallsBackToWindow(t *testing.T) {
	llm := &mockLLM{reply: `{"symbol": "AAPL", "start_date": "2024-13-01", "end_date": "2024-12-31", "note": "fy"}`}
	e := NewParameterExtractor(llm, nil)
	e.SetClock(fixedClock)

	res := e.ExtractDetailed(context.Background(), "Apple this year")

	assert.Equal(t, domain.ExtractionParsed, res.Outcome)
	assert.Equal(t, "AAPL", res.Params.SymbolOrEmpty())
	assert.True(t, res.DatesDefaulted)
	assert.Equal(t, "2023-07-01", domain.DateString(res.Params.StartDate))
	assert.Equal(t, "2024-06-30", domain.DateString(res.Params.EndDate))
}

func TestParameterExtractor_SymbolNeverDefaulted(t *testing.T) {
	llm := &mockLLM{reply: `{"symbol": null, "start_date": null, "end_date": null}`}
	e := NewParameterExtractor(llm, nil)
	e.SetClock(fixedClock)

	params := e.Extract(context.Background(), "What is inflation doing?")

	assert.Nil(t, params.Symbol)
	assert.True(t, params.HasDateRange())
}

func TestParameterExtractor_Unparseable(t *testing.T) {
	tests := []struct {
		name string
		llm  *mockLLM
	}{
		{"model error", &mockLLM{err: errors.New("503")}},
		{"prose reply", &mockLLM{reply: "Sure! The symbol is AAPL."}},
		{"missing key", &mockLLM{reply: `{"symbol": "AAPL", "start_date": "2024-01-01"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewParameterExtractor(tt.llm, nil)

			res := e.ExtractDetailed(context.Background(), "q")

			assert.Equal(t, domain.ExtractionUnparseable, res.Outcome)
			assert.True(t, res.Params.IsEmpty())
			assert.True(t, errors.Is(res.Err, domain.ErrExtraction))
		})
	}
}

func TestParameterExtractor_NoLLM(t *testing.T) {
	e := NewParameterExtractor(nil, nil)

	res := e.ExtractDetailed(context.Background(), "q")

	assert.Equal(t, domain.ExtractionUnparseable, res.Outcome)
	assert.True(t, errors.Is(res.Err, domain.ErrLLMUnavailable))
}
