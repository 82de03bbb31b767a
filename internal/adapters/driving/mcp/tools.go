package mcp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"a financial question, optionally naming a company and date range"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Narrative     string            `json:"narrative"`
	NarrativeOnly bool              `json:"narrative_only"`
	Params        ParamsOutput      `json:"params"`
	Forecast      *ForecastOutput   `json:"forecast,omitempty"`
	Indicators    *IndicatorsOutput `json:"indicators,omitempty"`
	ReportPath    string            `json:"report_path,omitempty"`
}

// ExtractInput is the input schema for the extract_parameters tool.
type ExtractInput struct {
	Question string `json:"question" jsonschema:"the question to extract a symbol and date range from"`
}

// ParamsOutput is the wire form of query parameters. Empty strings mean null.
type ParamsOutput struct {
	Symbol    string `json:"symbol,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Question string `json:"question" jsonschema:"the text to search all indices for"`
	K        int    `json:"k,omitempty" jsonschema:"matches per domain (default 10)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Matches []MatchOutput `json:"matches"`
	Count   int           `json:"count"`
}

// MatchOutput is one retrieved chunk.
type MatchOutput struct {
	Domain     string  `json:"domain"`
	Source     string  `json:"source"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

// RangeInput selects a symbol and optional date range.
type RangeInput struct {
	Symbol    string `json:"symbol" jsonschema:"ticker symbol, for example AAPL"`
	StartDate string `json:"start_date,omitempty" jsonschema:"YYYY-MM-DD, inclusive"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"YYYY-MM-DD, inclusive"`
}

// ForecastInput is the input schema for the forecast tool.
type ForecastInput struct {
	Symbol    string `json:"symbol" jsonschema:"ticker symbol, for example AAPL"`
	StartDate string `json:"start_date,omitempty" jsonschema:"YYYY-MM-DD, inclusive"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"YYYY-MM-DD, inclusive"`
	Degree    int    `json:"degree,omitempty" jsonschema:"polynomial degree (default 8)"`
}

// ForecastOutput summarises a trend fit. RSquared is omitted for flat series.
type ForecastOutput struct {
	Symbol         string    `json:"symbol"`
	Degree         int       `json:"degree"`
	Points         int       `json:"points"`
	RSquared       *float64  `json:"r_squared,omitempty"`
	PredictedDate  string    `json:"predicted_date"`
	PredictedValue float64   `json:"predicted_value"`
	Coefficients   []float64 `json:"coefficients"`
	Available      bool      `json:"available"`
}

// IndicatorsOutput is the output schema for the technical_indicators tool.
type IndicatorsOutput struct {
	Points        int      `json:"points"`
	Volatility    *float64 `json:"volatility,omitempty"`
	AverageReturn *float64 `json:"average_return,omitempty"`
	MA20          *float64 `json:"ma20,omitempty"`
	MA50          *float64 `json:"ma50,omitempty"`
	MaxDrawdown   *float64 `json:"max_drawdown,omitempty"`
}

// IndexStatusInput is the (empty) input schema for the index_status tool.
type IndexStatusInput struct{}

// IndexStatusOutput lists every domain index.
type IndexStatusOutput struct {
	Indices []domain.IndexStatus `json:"indices"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a financial question from news, filings, macro data and prices; forecasts and writes a PDF report when a company is named",
	}, s.handleAsk)

	if s.ports.Extraction != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "extract_parameters",
			Description: "Extract the ticker symbol and date range from a question",
		}, s.handleExtract)
	}
	if s.ports.Fusion != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "retrieve",
			Description: "Return the closest matches from every domain index without generating an answer",
		}, s.handleRetrieve)
	}
	if s.ports.Forecast != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "forecast",
			Description: "Fit a polynomial trend to daily closes and predict the next day",
		}, s.handleForecast)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "technical_indicators",
			Description: "Compute volatility, moving averages, average return and max drawdown",
		}, s.handleIndicators)
	}
	if s.ports.Index != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "index_status",
			Description: "Report which domain vector indices are built",
		}, s.handleIndexStatus)
	}
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, errors.New("question is required")
	}

	res, err := s.ports.Pipeline.Run(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	out := AskOutput{
		Narrative:     res.Narrative,
		NarrativeOnly: res.NarrativeOnly,
		Params:        toParams(res.Params),
		ReportPath:    res.ReportPath,
	}
	if res.Forecast != nil {
		f := toForecast(res.Forecast)
		out.Forecast = &f
	}
	if res.Indicators != nil {
		ind := toIndicators(*res.Indicators)
		out.Indicators = &ind
	}
	return nil, out, nil
}

func (s *Server) handleExtract(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExtractInput,
) (*mcp.CallToolResult, ParamsOutput, error) {
	res := s.ports.Extraction.ExtractDetailed(ctx, input.Question)
	out := toParams(res.Params)
	out.Outcome = res.Outcome.String()
	return nil, out, nil
}

func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	k := input.K
	if k <= 0 {
		k = domain.DefaultTopK
	}

	res, err := s.ports.Fusion.Retrieve(ctx, input.Question, k)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	out := RetrieveOutput{Matches: make([]MatchOutput, len(res.Chunks)), Count: len(res.Chunks)}
	for i, c := range res.Chunks {
		out.Matches[i] = MatchOutput{
			Domain:     c.Chunk.Domain.String(),
			Source:     c.Chunk.SourceTag,
			Text:       c.Chunk.Text,
			Similarity: c.Similarity,
		}
	}
	return nil, out, nil
}

func (s *Server) handleForecast(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ForecastInput,
) (*mcp.CallToolResult, ForecastOutput, error) {
	symbol, start, end, err := RangeInput{Symbol: input.Symbol, StartDate: input.StartDate, EndDate: input.EndDate}.parse()
	if err != nil {
		return nil, ForecastOutput{}, err
	}

	res, err := s.ports.Forecast.Forecast(ctx, symbol, start, end, input.Degree)
	if err != nil {
		return nil, ForecastOutput{}, err
	}
	if res == nil {
		return nil, ForecastOutput{Symbol: symbol}, nil
	}
	return nil, toForecast(res), nil
}

func (s *Server) handleIndicators(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RangeInput,
) (*mcp.CallToolResult, IndicatorsOutput, error) {
	symbol, start, end, err := input.parse()
	if err != nil {
		return nil, IndicatorsOutput{}, err
	}

	ind, err := s.ports.Forecast.TechnicalIndicators(ctx, symbol, start, end)
	if err != nil {
		return nil, IndicatorsOutput{}, err
	}
	return nil, toIndicators(ind), nil
}

func (s *Server) handleIndexStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ IndexStatusInput,
) (*mcp.CallToolResult, IndexStatusOutput, error) {
	statuses, err := s.ports.Index.Status(ctx)
	if err != nil {
		return nil, IndexStatusOutput{}, err
	}
	return nil, IndexStatusOutput{Indices: statuses}, nil
}

func (r RangeInput) parse() (symbol string, start, end *time.Time, err error) {
	symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	if symbol == "" {
		return "", nil, nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidInput)
	}
	if start, err = parseDate(r.StartDate); err != nil {
		return "", nil, nil, err
	}
	if end, err = parseDate(r.EndDate); err != nil {
		return "", nil, nil, err
	}
	return symbol, start, end, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q is not YYYY-MM-DD", domain.ErrInvalidInput, s)
	}
	return &t, nil
}

func toParams(p domain.QueryParameters) ParamsOutput {
	return ParamsOutput{
		Symbol:    p.SymbolOrEmpty(),
		StartDate: domain.DateString(p.StartDate),
		EndDate:   domain.DateString(p.EndDate),
	}
}

func toForecast(r *domain.RegressionResult) ForecastOutput {
	return ForecastOutput{
		Symbol:         r.Symbol,
		Degree:         r.Degree,
		Points:         len(r.Series),
		RSquared:       finite(r.RSquared),
		PredictedDate:  r.Predicted.Date.Format(domain.DateLayout),
		PredictedValue: r.Predicted.Value,
		Coefficients:   r.Coefficients,
		Available:      true,
	}
}

func toIndicators(t domain.TechnicalIndicators) IndicatorsOutput {
	return IndicatorsOutput{
		Points:        t.Points,
		Volatility:    t.Volatility,
		AverageReturn: t.AverageReturn,
		MA20:          t.MA20,
		MA50:          t.MA50,
		MaxDrawdown:   t.MaxDrawdown,
	}
}

// finite drops NaN and Inf, which JSON cannot carry.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
