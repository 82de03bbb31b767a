package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
)

// mockLLM answers prompts by substring match; unmatched prompts get reply.
type mockLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	byMatch map[string]string
	failOn  map[string]error
	delay   time.Duration
	prompts []string
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.delay):
		}
	}
	for substr, err := range m.failOn {
		if strings.Contains(prompt, substr) {
			return "", err
		}
	}
	if m.err != nil {
		return "", m.err
	}
	for substr, out := range m.byMatch {
		if strings.Contains(prompt, substr) {
			return out, nil
		}
	}
	return m.reply, nil
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prompts[len(m.prompts)-1]
}

// mockEmbedder maps texts containing a keyword to that keyword's vector.
type mockEmbedder struct {
	mu       sync.Mutex
	dims     int
	vectors  map[string][]float32
	err      error
	batches  [][]string
	embedded []string
	delay    time.Duration
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{dims: 3, vectors: map[string][]float32{}}
}

func (m *mockEmbedder) vectorFor(text string) []float32 {
	for kw, v := range m.vectors {
		if strings.Contains(text, kw) {
			return v
		}
	}
	return []float32{0.1, 0.1, 0.1}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.embedded = append(m.embedded, text)
	return m.vectorFor(text), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.batches = append(m.batches, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectorFor(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int            { return m.dims }
func (m *mockEmbedder) ModelName() string          { return "mock-embed" }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error               { return nil }

func (m *mockEmbedder) batchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

// mockPrompts serves overridden templates.
type mockPrompts struct {
	templates map[string]string
}

func (m *mockPrompts) Load(name string) (string, error) {
	t, ok := m.templates[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return t, nil
}

func (m *mockPrompts) Reload() {}

// mockBlockSource returns fixed blocks per domain.
type mockBlockSource struct {
	mu     sync.Mutex
	blocks map[domain.Domain][]domain.TextBlock
	err    error
	calls  map[domain.Domain]int
}

func (m *mockBlockSource) Blocks(_ context.Context, d domain.Domain) ([]domain.TextBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[domain.Domain]int{}
	}
	m.calls[d]++
	if m.err != nil {
		return nil, m.err
	}
	return m.blocks[d], nil
}

// mockIndexProvider hands out prepared indices.
type mockIndexProvider struct {
	indices map[domain.Domain]*domain.VectorIndex
	errs    map[domain.Domain]error
}

func (m *mockIndexProvider) Ensure(_ context.Context, d domain.Domain) (*domain.VectorIndex, error) {
	if err := m.errs[d]; err != nil {
		return nil, err
	}
	if idx, ok := m.indices[d]; ok {
		return idx, nil
	}
	return &domain.VectorIndex{Domain: d}, nil
}

type mockExtractor struct {
	params domain.QueryParameters
	delay  time.Duration
}

func (m *mockExtractor) Extract(ctx context.Context, _ string) domain.QueryParameters {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(m.delay):
		}
	}
	return m.params
}

func (m *mockExtractor) ExtractDetailed(ctx context.Context, q string) domain.ExtractionResult {
	return domain.ExtractionResult{Outcome: domain.ExtractionParsed, Params: m.Extract(ctx, q)}
}

type mockFusion struct {
	narrative string
	calls     int
	k         int
}

func (m *mockFusion) Fuse(_ context.Context, _ string, k int) string {
	m.calls++
	m.k = k
	return m.narrative
}

func (m *mockFusion) Retrieve(context.Context, string, int) (domain.RetrievalResult, error) {
	return domain.RetrievalResult{}, nil
}

type mockWarmer struct {
	err   error
	calls int
}

func (m *mockWarmer) EnsureAll(context.Context) error {
	m.calls++
	return m.err
}

type mockForecaster struct {
	result     *domain.RegressionResult
	err        error
	indicators domain.TechnicalIndicators
	calls      int
	degree     int
}

func (m *mockForecaster) Forecast(
	_ context.Context, _ string, _, _ *time.Time, degree int,
) (*domain.RegressionResult, error) {
	m.calls++
	m.degree = degree
	return m.result, m.err
}

func (m *mockForecaster) TechnicalIndicators(
	context.Context, string, *time.Time, *time.Time,
) (domain.TechnicalIndicators, error) {
	return m.indicators, nil
}

type mockSections struct {
	sections domain.NarrativeSections
	calls    int
}

func (m *mockSections) Write(context.Context, string, domain.QueryParameters) domain.NarrativeSections {
	m.calls++
	return m.sections
}

type mockRenderer struct {
	path   string
	err    error
	report *domain.Report
}

func (m *mockRenderer) Render(_ context.Context, r *domain.Report) (string, error) {
	m.report = r
	return m.path, m.err
}

type mockGate struct {
	err   error
	calls int
}

func (m *mockGate) Admit(context.Context) error {
	m.calls++
	return m.err
}

// mockMarket serves canned provider data; failures maps a key to a queue of
// errors returned before the data.
type mockMarket struct {
	mu         sync.Mutex
	prices     map[string][]domain.PriceBar
	reports    map[string][]domain.FinancialReport
	indicators map[string][]domain.IndicatorPoint
	failures   map[string][]error
	calls      map[string]int
}

func (m *mockMarket) next(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[key]++
	q := m.failures[key]
	if len(q) == 0 {
		return nil
	}
	m.failures[key] = q[1:]
	return q[0]
}

func (m *mockMarket) FetchPriceSeries(_ context.Context, symbol string) ([]domain.PriceBar, error) {
	if err := m.next("prices:" + symbol); err != nil {
		return nil, err
	}
	return m.prices[symbol], nil
}

func (m *mockMarket) FetchFinancialStatements(_ context.Context, symbol string) ([]domain.FinancialReport, error) {
	if err := m.next("reports:" + symbol); err != nil {
		return nil, err
	}
	return m.reports[symbol], nil
}

func (m *mockMarket) FetchIndicatorSeries(_ context.Context, name string) ([]domain.IndicatorPoint, error) {
	if err := m.next("indicators:" + name); err != nil {
		return nil, err
	}
	return m.indicators[name], nil
}

type mockNews struct {
	articles map[string][]domain.NewsArticle
	err      error
	window   int
}

func (m *mockNews) FetchArticles(_ context.Context, topic string, windowDays int) ([]domain.NewsArticle, error) {
	m.window = windowDays
	if m.err != nil {
		return nil, m.err
	}
	return m.articles[topic], nil
}

type mockArticleExtractor struct {
	texts map[string]string
	urls  []string
}

func (m *mockArticleExtractor) Extract(_ context.Context, url string) (string, error) {
	m.urls = append(m.urls, url)
	if t, ok := m.texts[url]; ok {
		return t, nil
	}
	return "", errors.New("no article")
}

// retryableErr is a provider error that asks to be retried.
type retryableErr struct{ retry bool }

func (e retryableErr) Error() string   { return "provider hiccup" }
func (e retryableErr) Retryable() bool { return e.retry }

// noSleep records waits instead of sleeping.
type noSleep struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (n *noSleep) sleep(ctx context.Context, d time.Duration) error {
	n.mu.Lock()
	n.waits = append(n.waits, d)
	n.mu.Unlock()
	return ctx.Err()
}

func fastRetry(attempts int) (RetryPolicy, *noSleep) {
	ns := &noSleep{}
	p := DefaultRetryPolicy()
	p.MaxAttempts = attempts
	p.Sleep = ns.sleep
	return p, ns
}

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func strPtr(s string) *string { return &s }
