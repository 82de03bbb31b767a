package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		provider AIProvider
		expected bool
	}{
		{AIProviderGemini, true},
		{AIProviderOpenAI, true},
		{AIProvider(""), false},
		{AIProvider("ollama"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Google Gemini (cloud)", AIProviderGemini.Description())
	assert.Equal(t, "OpenAI (cloud)", AIProviderOpenAI.Description())
	assert.Equal(t, "Unknown", AIProvider("x").Description())
	assert.Equal(t, "openai", AIProviderOpenAI.String())
}

func TestStoreDriver_IsValid(t *testing.T) {
	assert.True(t, StoreDriverSQLite.IsValid())
	assert.True(t, StoreDriverPostgres.IsValid())
	assert.False(t, StoreDriver("mysql").IsValid())
	assert.Equal(t, "postgres", StoreDriverPostgres.String())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.False(t, EmbeddingSettings{Provider: AIProviderGemini}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: "x", APIKey: "k"}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "k"}.IsConfigured())
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.False(t, LLMSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderGemini, APIKey: "k"}.IsConfigured())
}

func TestDefaultAppConfig(t *testing.T) {
	cfg := DefaultAppConfig("/data")

	assert.Equal(t, AIProviderGemini, cfg.Embedding.Provider)
	assert.Equal(t, AIProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/data/indices", cfg.Store.IndexDir)
	assert.Equal(t, "/data/reports", cfg.Store.ReportDir)

	assert.Equal(t, DefaultTimeout, cfg.Pipeline.Timeout)
	assert.Equal(t, DefaultDegree, cfg.Pipeline.Degree)
	assert.Equal(t, DefaultChunkSize, cfg.Pipeline.ChunkSize)
	assert.Less(t, cfg.Pipeline.ChunkOverlap, cfg.Pipeline.ChunkSize)

	assert.Equal(t, DefaultRetryAttempts, cfg.Retry.MaxAttempts)
	assert.LessOrEqual(t, cfg.Retry.MinWait, cfg.Retry.MaxWait)

	assert.Equal(t, DefaultSymbols(), cfg.Ingest.Symbols)
	assert.False(t, cfg.Gate.Enabled)
	assert.Equal(t, DefaultGateInterval, cfg.Gate.MinInterval)
}

func TestDefaultLists_AreFreshCopies(t *testing.T) {
	a := DefaultSymbols()
	a[0] = "ZZZ"
	assert.NotEqual(t, "ZZZ", DefaultSymbols()[0])
	assert.Contains(t, DefaultTopics(), "inflation")
	assert.Contains(t, DefaultIndicators(), "CPI")
}

func TestIngestSource_IsValid(t *testing.T) {
	for _, s := range AllIngestSources() {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, IngestSource("tweets").IsValid())
	assert.Len(t, AllIngestSources(), 4)
}
