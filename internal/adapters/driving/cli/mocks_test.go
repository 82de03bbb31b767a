package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

// execute runs the root command with args and returns its output.
// Flag variables are reset first because cobra keeps them between runs.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	askJSON, forecastJSON, ingestJSON, indexJSON, settingsPing = false, false, false, false, false
	rangeStart, rangeEnd = "", ""
	forecastDegree, retrieveK = domain.DefaultDegree, domain.DefaultTopK
	ingestSymbols, ingestTopics, ingestIndicators, ingestSources = nil, nil, nil, nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

type mockPipeline struct {
	result *domain.PipelineResult
	err    error
	got    string
}

func (m *mockPipeline) Run(_ context.Context, q string) (*domain.PipelineResult, error) {
	m.got = q
	return m.result, m.err
}

type mockExtraction struct{ result domain.ExtractionResult }

func (m *mockExtraction) Extract(context.Context, string) domain.QueryParameters {
	return m.result.Params
}

func (m *mockExtraction) ExtractDetailed(context.Context, string) domain.ExtractionResult {
	return m.result
}

type mockFusion struct {
	result domain.RetrievalResult
	k      int
}

func (m *mockFusion) Fuse(context.Context, string, int) string { return "" }

func (m *mockFusion) Retrieve(_ context.Context, _ string, k int) (domain.RetrievalResult, error) {
	m.k = k
	return m.result, nil
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
	statuses    []domain.IndexStatus
	ensured     []domain.Domain
	invalidated []domain.Domain
	all         bool
}

func (m *mockIndex) Ensure(_ context.Context, d domain.Domain) (*domain.VectorIndex, error) {
	m.ensured = append(m.ensured, d)
	return &domain.VectorIndex{Domain: d, Chunks: make([]domain.IndexedChunk, 3)}, nil
}

func (m *mockIndex) EnsureAll(context.Context) error {
	m.all = true
	return nil
}

func (m *mockIndex) Invalidate(_ context.Context, d domain.Domain) error {
	m.invalidated = append(m.invalidated, d)
	return nil
}

func (m *mockIndex) Status(context.Context) ([]domain.IndexStatus, error) {
	return m.statuses, nil
}

type mockIngest struct {
	req     domain.IngestRequest
	summary *domain.IngestSummary
	err     error
}

func (m *mockIngest) Run(_ context.Context, req domain.IngestRequest) (*domain.IngestSummary, error) {
	m.req = req
	return m.summary, m.err
}
