package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGemini, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// StoreDriver selects the relational store backend.
type StoreDriver string

// Available relational drivers.
const (
	StoreDriverSQLite   StoreDriver = "sqlite"
	StoreDriverPostgres StoreDriver = "postgres"
)

// IsValid returns true if the driver is recognised.
func (d StoreDriver) IsValid() bool {
	return d == StoreDriverSQLite || d == StoreDriverPostgres
}

// String returns the string representation.
func (d StoreDriver) String() string {
	return string(d)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider   AIProvider `validate:"required"`
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int `validate:"gte=0"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.IsValid() && e.APIKey != ""
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	Provider    AIProvider `validate:"required"`
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float32 `validate:"gte=0,lte=2"`
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	return l.Provider.IsValid() && l.APIKey != ""
}

// StoreSettings locates the relational store and the vector index directory.
type StoreSettings struct {
	Driver    StoreDriver `validate:"required"`
	DSN       string
	DataDir   string `validate:"required"`
	IndexDir  string `validate:"required"`
	ReportDir string `validate:"required"`
}

// RetrySettings bounds retries of provider calls.
type RetrySettings struct {
	MaxAttempts int           `validate:"gte=1,lte=20"`
	MinWait     time.Duration `validate:"gte=0"`
	MaxWait     time.Duration `validate:"gtefield=MinWait"`
}

// PipelineSettings tunes retrieval and forecasting.
type PipelineSettings struct {
	Timeout      time.Duration `validate:"gt=0"`
	TopK         int           `validate:"gte=1,lte=100"`
	ChunkSize    int           `validate:"gte=50"`
	ChunkOverlap int           `validate:"gte=0,ltfield=ChunkSize"`
	Degree       int           `validate:"gte=1,lte=15"`
}

// IngestSettings lists what ingestion fetches by default.
type IngestSettings struct {
	Symbols        []string `validate:"dive,required,uppercase"`
	Topics         []string `validate:"dive,required"`
	Indicators     []string `validate:"dive,required"`
	NewsWindowDays int      `validate:"gte=1"`
	NewsPageSize   int      `validate:"gte=1,lte=100"`
	Workers        int      `validate:"gte=1,lte=32"`
	MarketAPIKey   string
	NewsAPIKey     string
	FetchFullText  bool
}

// GateSettings controls the optional run gate.
type GateSettings struct {
	Enabled     bool
	AllowedKeys []string
	APIKey      string
	MinInterval time.Duration `validate:"gte=0"`
}

// AppConfig is the typed configuration snapshot passed to components at construction.
type AppConfig struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Store     StoreSettings
	Retry     RetrySettings
	Pipeline  PipelineSettings
	Ingest    IngestSettings
	Gate      GateSettings
}

// Default values for AppConfig.
const (
	DefaultChunkSize      = 500
	DefaultChunkOverlap   = 50
	DefaultTopK           = 10
	DefaultTimeout        = 60 * time.Second
	DefaultRetryAttempts  = 5
	DefaultRetryMinWait   = 2 * time.Second
	DefaultRetryMaxWait   = 30 * time.Second
	DefaultNewsWindowDays = 30
	DefaultNewsPageSize   = 20
	DefaultIngestWorkers  = 4
	DefaultGateInterval   = 30 * time.Second
)

// DefaultSymbols is the equity universe ingested when none is given.
func DefaultSymbols() []string {
	return []string{
		"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META",
		"JPM", "BAC", "WFC", "GS", "MS",
		"XOM", "CVX", "BP", "COP",
		"UNH", "JNJ", "PFE", "MRK", "LLY",
	}
}

// DefaultTopics is the news topic list ingested when none is given.
func DefaultTopics() []string {
	return []string{"stock market", "inflation", "Federal Reserve", "Apple", "Microsoft"}
}

// DefaultIndicators is the macroeconomic series list ingested when none is given.
func DefaultIndicators() []string {
	return []string{"CPI", "INFLATION", "FEDERAL_FUNDS_RATE", "UNEMPLOYMENT"}
}

// DefaultAppConfig returns a configuration with every default applied.
func DefaultAppConfig(dataDir string) AppConfig {
	return AppConfig{
		Embedding: EmbeddingSettings{Provider: AIProviderGemini},
		LLM:       LLMSettings{Provider: AIProviderGemini},
		Store: StoreSettings{
			Driver:    StoreDriverSQLite,
			DataDir:   dataDir,
			IndexDir:  dataDir + "/indices",
			ReportDir: dataDir + "/reports",
		},
		Retry: RetrySettings{
			MaxAttempts: DefaultRetryAttempts,
			MinWait:     DefaultRetryMinWait,
			MaxWait:     DefaultRetryMaxWait,
		},
		Pipeline: PipelineSettings{
			Timeout:      DefaultTimeout,
			TopK:         DefaultTopK,
			ChunkSize:    DefaultChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
			Degree:       DefaultDegree,
		},
		Ingest: IngestSettings{
			Symbols:        DefaultSymbols(),
			Topics:         DefaultTopics(),
			Indicators:     DefaultIndicators(),
			NewsWindowDays: DefaultNewsWindowDays,
			NewsPageSize:   DefaultNewsPageSize,
			Workers:        DefaultIngestWorkers,
		},
		Gate: GateSettings{MinInterval: DefaultGateInterval},
	}
}

// IngestSource names one ingestion feed.
type IngestSource string

// Available ingestion sources.
const (
	IngestPrices     IngestSource = "prices"
	IngestReports    IngestSource = "reports"
	IngestIndicators IngestSource = "indicators"
	IngestNews       IngestSource = "news"
)

// AllIngestSources returns every ingestion source.
func AllIngestSources() []IngestSource {
	return []IngestSource{IngestPrices, IngestReports, IngestIndicators, IngestNews}
}

// IsValid returns true if the source is recognised.
func (s IngestSource) IsValid() bool {
	switch s {
	case IngestPrices, IngestReports, IngestIndicators, IngestNews:
		return true
	default:
		return false
	}
}

// IngestRequest selects what one ingestion run fetches.
// Empty slices fall back to the configured defaults.
type IngestRequest struct {
	Symbols    []string
	Topics     []string
	Indicators []string
	Sources    []IngestSource
}

// IngestCounts tallies records for one source.
type IngestCounts struct {
	Fetched int `json:"fetched"`
	Stored  int `json:"stored"`
	Dropped int `json:"dropped"`
}

// IngestSummary reports the outcome of one ingestion run.
type IngestSummary struct {
	Counts   map[IngestSource]*IngestCounts `json:"counts"`
	Failures []string                       `json:"failures,omitempty"`
}
