package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

type mockPipeline struct {
	result   *domain.PipelineResult
	err      error
	question string
}

func (m *mockPipeline) Run(_ context.Context, question string) (*domain.PipelineResult, error) {
	m.question = question
	return m.result, m.err
}

type mockExtraction struct {
	result domain.ExtractionResult
}

func (m *mockExtraction) Extract(_ context.Context, _ string) domain.QueryParameters {
	return m.result.Params
}

func (m *mockExtraction) ExtractDetailed(_ context.Context, _ string) domain.ExtractionResult {
	return m.result
}

type mockFusion struct {
	result domain.RetrievalResult
	err    error
	k      int
}

func (m *mockFusion) Fuse(_ context.Context, _ string, _ int) string {
	return ""
}

func (m *mockFusion) Retrieve(_ context.Context, _ string, k int) (domain.RetrievalResult, error) {
	m.k = k
	return m.result, m.err
}

type mockForecast struct {
	result     *domain.RegressionResult
	indicators domain.TechnicalIndicators
	err        error
	symbol     string
	start, end *time.Time
	degree     int
}

func (m *mockForecast) Forecast(_ context.Context, symbol string, start, end *time.Time, degree int) (*domain.RegressionResult, error) {
	m.symbol, m.start, m.end, m.degree = symbol, start, end, degree
	return m.result, m.err
}

func (m *mockForecast) TechnicalIndicators(_ context.Context, symbol string, start, end *time.Time) (domain.TechnicalIndicators, error) {
	m.symbol, m.start, m.end = symbol, start, end
	return m.indicators, m.err
}

type mockIndex struct {
	statuses []domain.IndexStatus
	err      error
}

func (m *mockIndex) Ensure(_ context.Context, d domain.Domain) (*domain.VectorIndex, error) {
	return &domain.VectorIndex{Domain: d}, m.err
}

func (m *mockIndex) EnsureAll(_ context.Context) error { return m.err }

func (m *mockIndex) Invalidate(_ context.Context, _ domain.Domain) error { return m.err }

func (m *mockIndex) Status(_ context.Context) ([]domain.IndexStatus, error) {
	return m.statuses, m.err
}
