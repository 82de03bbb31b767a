package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
	"github.com/custodia-labs/finrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedDims        = "embedding.dimensions"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMTemperature   = "llm.temperature"
	keyStoreDriver      = "store.driver"
	keyStoreDSN         = "store.dsn"
	keyStoreIndexDir    = "store.index_dir"
	keyStoreReportDir   = "store.report_dir"
	keyTimeout          = "pipeline.timeout_seconds"
	keyTopK             = "pipeline.top_k"
	keyChunkSize        = "pipeline.chunk_size"
	keyChunkOverlap     = "pipeline.chunk_overlap"
	keyDegree           = "pipeline.degree"
	keyRetryAttempts    = "retry.max_attempts"
	keyRetryMinWait     = "retry.min_wait_seconds"
	keyRetryMaxWait     = "retry.max_wait_seconds"
	keyIngestSymbols    = "ingest.symbols"
	keyIngestTopics     = "ingest.topics"
	keyIngestIndicators = "ingest.indicators"
	keyNewsWindow       = "ingest.news_window_days"
	keyNewsPageSize     = "ingest.news_page_size"
	keyIngestWorkers    = "ingest.workers"
	keyFullText         = "ingest.full_text"
	keyMarketAPIKey     = "ingest.market_api_key"
	keyNewsAPIKey       = "ingest.news_api_key"
	keyGateEnabled      = "gate.enabled"
	keyGateKeys         = "gate.allowed_keys"
	keyGateInterval     = "gate.min_interval_seconds"
)

// Environment variables that override stored secrets.
const (
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvMarketAPIKey = "ALPHAVANTAGE_API_KEY"
	EnvNewsAPIKey   = "NEWSAPI_API_KEY"
	EnvRunAPIKey    = "FINRAG_API_KEY"
	EnvDatabaseURL  = "FINRAG_DATABASE_URL"
)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindList
)

var settingKinds = map[string]settingKind{
	keyEmbedProvider: kindString, keyEmbedModel: kindString, keyEmbedBaseURL: kindString,
	keyEmbedAPIKey: kindString, keyEmbedDims: kindInt,
	keyLLMProvider: kindString, keyLLMModel: kindString, keyLLMBaseURL: kindString,
	keyLLMAPIKey: kindString, keyLLMTemperature: kindFloat,
	keyStoreDriver: kindString, keyStoreDSN: kindString, keyStoreIndexDir: kindString, keyStoreReportDir: kindString,
	keyTimeout: kindInt, keyTopK: kindInt, keyChunkSize: kindInt, keyChunkOverlap: kindInt, keyDegree: kindInt,
	keyRetryAttempts: kindInt, keyRetryMinWait: kindInt, keyRetryMaxWait: kindInt,
	keyIngestSymbols: kindList, keyIngestTopics: kindList, keyIngestIndicators: kindList,
	keyNewsWindow: kindInt, keyNewsPageSize: kindInt, keyIngestWorkers: kindInt, keyFullText: kindBool,
	keyMarketAPIKey: kindString, keyNewsAPIKey: kindString,
	keyGateEnabled: kindBool, keyGateKeys: kindList, keyGateInterval: kindInt,
}

// SettingsService builds the typed configuration from the config store,
// built-in defaults and environment overrides.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	dataDir     string
	lookupEnv   func(string) (string, bool)
	validate    *validator.Validate
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator, dataDir string) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		dataDir:     dataDir,
		lookupEnv:   os.LookupEnv,
		validate:    validator.New(),
	}
}

// SetEnvLookup overrides environment lookup. Useful for testing.
func (s *SettingsService) SetEnvLookup(fn func(string) (string, bool)) {
	s.lookupEnv = fn
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppConfig, error) {
	d := domain.DefaultAppConfig(s.dataDir)

	cfg := &domain.AppConfig{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:      s.configStore.GetString(keyEmbedModel),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL),
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.configStore.GetInt(keyEmbedDims),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:       s.configStore.GetString(keyLLMModel),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			Temperature: float32(s.configStore.GetFloat(keyLLMTemperature)),
		},
		Store: domain.StoreSettings{
			Driver:    s.getDriver(d.Store.Driver),
			DSN:       s.configStore.GetString(keyStoreDSN),
			DataDir:   d.Store.DataDir,
			IndexDir:  s.getString(keyStoreIndexDir, d.Store.IndexDir),
			ReportDir: s.getString(keyStoreReportDir, d.Store.ReportDir),
		},
		Retry: domain.RetrySettings{
			MaxAttempts: s.getInt(keyRetryAttempts, d.Retry.MaxAttempts),
			MinWait:     s.getSeconds(keyRetryMinWait, d.Retry.MinWait),
			MaxWait:     s.getSeconds(keyRetryMaxWait, d.Retry.MaxWait),
		},
		Pipeline: domain.PipelineSettings{
			Timeout:      s.getSeconds(keyTimeout, d.Pipeline.Timeout),
			TopK:         s.getInt(keyTopK, d.Pipeline.TopK),
			ChunkSize:    s.getInt(keyChunkSize, d.Pipeline.ChunkSize),
			ChunkOverlap: s.getInt(keyChunkOverlap, d.Pipeline.ChunkOverlap),
			Degree:       s.getInt(keyDegree, d.Pipeline.Degree),
		},
		Ingest: domain.IngestSettings{
			Symbols:        s.getList(keyIngestSymbols, d.Ingest.Symbols),
			Topics:         s.getList(keyIngestTopics, d.Ingest.Topics),
			Indicators:     s.getList(keyIngestIndicators, d.Ingest.Indicators),
			NewsWindowDays: s.getInt(keyNewsWindow, d.Ingest.NewsWindowDays),
			NewsPageSize:   s.getInt(keyNewsPageSize, d.Ingest.NewsPageSize),
			Workers:        s.getInt(keyIngestWorkers, d.Ingest.Workers),
			FetchFullText:  s.getBool(keyFullText, false),
			MarketAPIKey:   s.configStore.GetString(keyMarketAPIKey),
			NewsAPIKey:     s.configStore.GetString(keyNewsAPIKey),
		},
		Gate: domain.GateSettings{
			Enabled:     s.getBool(keyGateEnabled, false),
			AllowedKeys: s.configStore.GetStringSlice(keyGateKeys),
			MinInterval: s.getSeconds(keyGateInterval, d.Gate.MinInterval),
		},
	}
	s.applyEnv(cfg)
	return cfg, nil
}

// applyEnv fills secrets from the environment. Environment values win over stored ones.
func (s *SettingsService) applyEnv(cfg *domain.AppConfig) {
	providerKey := func(p domain.AIProvider) string {
		switch p {
		case domain.AIProviderGemini:
			return s.env(EnvGoogleAPIKey)
		case domain.AIProviderOpenAI:
			return s.env(EnvOpenAIAPIKey)
		default:
			return ""
		}
	}
	if v := providerKey(cfg.Embedding.Provider); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := providerKey(cfg.LLM.Provider); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := s.env(EnvMarketAPIKey); v != "" {
		cfg.Ingest.MarketAPIKey = v
	}
	if v := s.env(EnvNewsAPIKey); v != "" {
		cfg.Ingest.NewsAPIKey = v
	}
	if v := s.env(EnvRunAPIKey); v != "" {
		cfg.Gate.APIKey = v
	}
	if v := s.env(EnvDatabaseURL); v != "" {
		cfg.Store.DSN = v
		if strings.HasPrefix(v, "postgres://") || strings.HasPrefix(v, "postgresql://") {
			cfg.Store.Driver = domain.StoreDriverPostgres
		}
	}
}

func (s *SettingsService) env(key string) string {
	if s.lookupEnv == nil {
		return ""
	}
	v, _ := s.lookupEnv(key)
	return strings.TrimSpace(v)
}

// Set stores one setting, converting value to the key's type.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var stored any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		stored = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		stored = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		stored = b
	case kindList:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		stored = items
	default:
		stored = value
	}

	switch key {
	case keyEmbedProvider, keyLLMProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: provider %q", domain.ErrUnsupportedType, value)
		}
	case keyStoreDriver:
		if !domain.StoreDriver(value).IsValid() {
			return fmt.Errorf("%w: store driver %q", domain.ErrUnsupportedType, value)
		}
	}

	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every known setting key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks the current configuration against its constraints.
func (s *SettingsService) Validate() error {
	cfg, err := s.Get()
	if err != nil {
		return err
	}
	if !cfg.Embedding.Provider.IsValid() || !cfg.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: AI provider", domain.ErrUnsupportedType)
	}
	if !cfg.Store.Driver.IsValid() {
		return fmt.Errorf("%w: store driver %q", domain.ErrUnsupportedType, cfg.Store.Driver)
	}
	if cfg.Store.Driver == domain.StoreDriverPostgres && cfg.Store.DSN == "" {
		return fmt.Errorf("%w: postgres store requires %s or %s", domain.ErrInvalidInput, keyStoreDSN, EnvDatabaseURL)
	}
	if err := s.validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return nil
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	cfg, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&cfg.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	cfg, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&cfg.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Second
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getList(key string, defaultVal []string) []string {
	val := s.configStore.GetStringSlice(key)
	if len(val) == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getDriver(defaultVal domain.StoreDriver) domain.StoreDriver {
	driver := domain.StoreDriver(s.configStore.GetString(keyStoreDriver))
	if !driver.IsValid() {
		return defaultVal
	}
	return driver
}
