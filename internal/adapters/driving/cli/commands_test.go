package cli

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

func day(s string) time.Time {
	t, _ := time.Parse(domain.DateLayout, s)
	return t
}

func sampleForecast() *domain.RegressionResult {
	return &domain.RegressionResult{
		Symbol:    "AAPL",
		Degree:    8,
		Series:    domain.PriceSeries{{Date: day("2024-01-02"), Close: 1}, {Date: day("2024-01-03"), Close: 2}},
		RSquared:  0.9512,
		Predicted: domain.Prediction{Date: day("2024-02-03"), Value: 187.25},
	}
}

func TestAsk(t *testing.T) {
	symbol := "AAPL"
	start, end := day("2024-01-01"), day("2024-03-31")
	pipeline := &mockPipeline{result: &domain.PipelineResult{
		Question:   "How did Apple do?",
		Params:     domain.QueryParameters{Symbol: &symbol, StartDate: &start, EndDate: &end},
		Narrative:  "Apple outperformed.",
		Forecast:   sampleForecast(),
		Indicators: &domain.TechnicalIndicators{Points: 2, MaxDrawdown: domain.Float(-0.1)},
		ReportPath: "/tmp/reports/AAPL.pdf",
	}}
	SetServices(&Services{Pipeline: pipeline})
	defer SetServiceFactory(nil)

	out, err := execute(t, "ask", "How", "did", "Apple", "do?")
	require.NoError(t, err)
	assert.Equal(t, "How did Apple do?", pipeline.got)
	assert.Contains(t, out, "Symbol: AAPL")
	assert.Contains(t, out, "2024-01-01 to 2024-03-31")
	assert.Contains(t, out, "Apple outperformed.")
	assert.Contains(t, out, "$187.25 on 2024-02-03")
	assert.Contains(t, out, "-10.00%")
	assert.Contains(t, out, "Report written to /tmp/reports/AAPL.pdf")
}

func TestAsk_JSONWithFlatSeries(t *testing.T) {
	f := sampleForecast()
	f.RSquared = math.NaN()
	SetServices(&Services{Pipeline: &mockPipeline{result: &domain.PipelineResult{Narrative: "n", Forecast: f}}})
	defer SetServiceFactory(nil)

	out, err := execute(t, "ask", "--json", "q")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	forecast := decoded["forecast"].(map[string]any)
	assert.Nil(t, forecast["r_squared"])
	assert.Equal(t, "2024-02-03", forecast["predicted_date"])
}

func TestAsk_NarrativeOnlyAndErrors(t *testing.T) {
	pipeline := &mockPipeline{result: &domain.PipelineResult{Narrative: "Rates rose.", NarrativeOnly: true}}
	SetServices(&Services{Pipeline: pipeline})
	defer SetServiceFactory(nil)

	out, err := execute(t, "ask", "Fed?")
	require.NoError(t, err)
	assert.Contains(t, out, "No company detected")

	pipeline.err = domain.ErrTimeout
	_, err = execute(t, "ask", "Fed?")
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestServices_FactoryError(t *testing.T) {
	calls := 0
	SetServiceFactory(func(context.Context) (*Services, error) {
		calls++
		return nil, domain.ErrLLMUnavailable
	})
	defer SetServiceFactory(nil)

	_, err := execute(t, "ask", "q")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	_, err = execute(t, "forecast", "AAPL")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Equal(t, 1, calls)
}

func TestForecast(t *testing.T) {
	forecast := &mockForecast{result: sampleForecast()}
	SetServices(&Services{Forecast: forecast})
	defer SetServiceFactory(nil)

	out, err := execute(t, "forecast", "aapl", "--start", "2024-01-01", "--end", "2024-01-31", "--degree", "3")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", forecast.symbol)
	assert.Equal(t, 3, forecast.degree)
	require.NotNil(t, forecast.start)
	assert.Equal(t, "2024-01-31", forecast.end.Format(domain.DateLayout))
	assert.Contains(t, out, "R²:         0.9512")

	_, err = execute(t, "forecast", "AAPL", "--start", "Jan 1")
	assert.Error(t, err)

	forecast.result = nil
	out, err = execute(t, "forecast", "AAPL")
	require.NoError(t, err)
	assert.Nil(t, forecast.start)
	assert.Equal(t, domain.DefaultDegree, forecast.degree)
	assert.Contains(t, out, "No price data for AAPL")
}

func TestIndicators(t *testing.T) {
	forecast := &mockForecast{indicators: domain.TechnicalIndicators{
		Points: 30, Volatility: domain.Float(0.0215), MA20: domain.Float(101.5),
	}}
	SetServices(&Services{Forecast: forecast})
	defer SetServiceFactory(nil)

	out, err := execute(t, "indicators", "msft")
	require.NoError(t, err)
	assert.Equal(t, "MSFT", forecast.symbol)
	assert.Contains(t, out, "0.0215")
	assert.Contains(t, out, "$101.50")
	assert.Contains(t, out, "n/a")

	forecast.indicators = domain.TechnicalIndicators{}
	out, err = execute(t, "indicators", "MSFT")
	require.NoError(t, err)
	assert.Contains(t, out, "No price data in range.")
}

func TestIngest(t *testing.T) {
	ingest := &mockIngest{summary: &domain.IngestSummary{
		Counts: map[domain.IngestSource]*domain.IngestCounts{
			domain.IngestPrices: {Fetched: 10, Stored: 9, Dropped: 1},
		},
		Failures: []string{"news: inflation: rate limited"},
	}, err: domain.ErrProvider}
	SetServices(&Services{Ingest: ingest})
	defer SetServiceFactory(nil)

	out, err := execute(t, "ingest", "--symbols", "aapl, msft", "--sources", "prices,news")
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.Equal(t, []string{"AAPL", "MSFT"}, ingest.req.Symbols)
	assert.Equal(t, []domain.IngestSource{domain.IngestPrices, domain.IngestNews}, ingest.req.Sources)
	assert.Contains(t, out, "prices")
	assert.Contains(t, out, "rate limited")

	_, err = execute(t, "ingest", "--sources", "crypto")
	assert.Error(t, err)
}

func TestIndexCommands(t *testing.T) {
	index := &mockIndex{statuses: []domain.IndexStatus{
		{Domain: domain.DomainNews, Present: true, Chunks: 42, Dimension: 768, CreatedAt: day("2024-05-01")},
		{Domain: domain.DomainPrice},
	}}
	SetServices(&Services{Index: index})
	defer SetServiceFactory(nil)

	_, err := execute(t, "index", "build")
	require.NoError(t, err)
	assert.True(t, index.all)

	out, err := execute(t, "index", "build", "news")
	require.NoError(t, err)
	assert.Equal(t, []domain.Domain{domain.DomainNews}, index.ensured)
	assert.Contains(t, out, "news: 3 chunks")

	_, err = execute(t, "index", "invalidate", "all")
	require.NoError(t, err)
	assert.Equal(t, domain.AllDomains(), index.invalidated)

	_, err = execute(t, "index", "invalidate", "weather")
	assert.Error(t, err)

	out, err = execute(t, "index", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "2024-05-01")
}

func TestRetrieveAndExtract(t *testing.T) {
	symbol := "NVDA"
	fusion := &mockFusion{result: domain.RetrievalResult{Chunks: []domain.RetrievedChunk{
		{Chunk: domain.Chunk{Domain: domain.DomainEconomic, Text: "CPI rose 0.4%", SourceTag: "indicator:CPI"}, Similarity: 0.812},
	}}}
	extraction := &mockExtraction{result: domain.ExtractionResult{
		Outcome: domain.ExtractionParsed,
		Params:  domain.QueryParameters{Symbol: &symbol},
	}}
	SetServices(&Services{Fusion: fusion, Extraction: extraction})
	defer SetServiceFactory(nil)

	out, err := execute(t, "retrieve", "--k", "3", "inflation")
	require.NoError(t, err)
	assert.Equal(t, 3, fusion.k)
	assert.Contains(t, out, "Macroeconomic indicators")
	assert.Contains(t, out, "indicator:CPI (0.812)")

	out, err = execute(t, "extract", "Nvidia", "outlook")
	require.NoError(t, err)
	assert.Contains(t, out, "Symbol:     NVDA")
	assert.Contains(t, out, "Start date: null")

	extraction.result = domain.ExtractionResult{Err: errors.New("bad json")}
	out, err = execute(t, "extract", "x")
	require.NoError(t, err)
	assert.Contains(t, out, "Outcome:    unparseable")
	assert.Contains(t, out, "bad json")
}

func TestMissingService(t *testing.T) {
	SetServices(&Services{})
	defer SetServiceFactory(nil)

	for _, args := range [][]string{{"ask", "q"}, {"forecast", "AAPL"}, {"ingest"}, {"index", "status"}} {
		_, err := execute(t, args...)
		assert.Error(t, err, args)
	}
}

func TestMCPServe_RequiresPipeline(t *testing.T) {
	SetServices(&Services{})
	defer SetServiceFactory(nil)

	_, err := execute(t, "mcp", "serve")
	assert.Error(t, err)
}
