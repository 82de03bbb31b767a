// Package app wires the driven adapters into the core services.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/finrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/finrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/finrag/internal/adapters/driven/gate"
	"github.com/custodia-labs/finrag/internal/adapters/driven/providers/alphavantage"
	"github.com/custodia-labs/finrag/internal/adapters/driven/providers/fulltext"
	"github.com/custodia-labs/finrag/internal/adapters/driven/providers/newsapi"
	"github.com/custodia-labs/finrag/internal/adapters/driven/report/pdf"
	"github.com/custodia-labs/finrag/internal/adapters/driven/storage/badger"
	"github.com/custodia-labs/finrag/internal/adapters/driven/storage/sqlstore"
	"github.com/custodia-labs/finrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
	"github.com/custodia-labs/finrag/internal/core/services"
	"github.com/custodia-labs/finrag/internal/logger"
	"github.com/custodia-labs/finrag/internal/postprocessors/chunker"
)

// EnvHome overrides the data directory (default ~/.finrag).
const EnvHome = "FINRAG_HOME"

// App owns the configuration layer and, once built, every long-lived adapter.
type App struct {
	dataDir  string
	config   *file.ConfigStore
	prompts  *file.PromptStore
	Settings *services.SettingsService

	mu      sync.Mutex
	closers []func() error
}

// New opens the configuration layer under dataDir ("" = $FINRAG_HOME or ~/.finrag).
func New(dataDir string) (*App, error) {
	if dataDir == "" {
		dataDir = os.Getenv(EnvHome)
	}
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dataDir = filepath.Join(home, ".finrag")
	}

	config, err := file.NewConfigStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	prompts, err := file.NewPromptStore(filepath.Join(dataDir, "prompts"), services.DefaultPrompts())
	if err != nil {
		return nil, fmt.Errorf("open prompts: %w", err)
	}

	return &App{
		dataDir:  dataDir,
		config:   config,
		prompts:  prompts,
		Settings: services.NewSettingsService(config, ai.NewConfigValidator(), dataDir),
	}, nil
}

// Services builds every service from the current settings. Adapters opened
// here are released by Close.
func (a *App) Services(ctx context.Context) (*cli.Services, error) {
	cfg, err := a.Settings.Get()
	if err != nil {
		return nil, err
	}
	if err := a.Settings.Validate(); err != nil {
		return nil, err
	}

	records, err := sqlstore.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	a.onClose(records.Close)

	indexStore, err := badger.NewIndexStore(cfg.Store.IndexDir)
	if err != nil {
		return nil, fmt.Errorf("open index store: %w", err)
	}
	a.onClose(indexStore.Close)

	ingest := a.ingestService(cfg, records)

	aiServices, err := ai.NewServices(ctx, cfg)
	if err != nil {
		// Ingestion and forecasting work without AI providers.
		logger.Warn("AI services unavailable: %v", err)
		forecast := services.NewForecastService(records)
		return &cli.Services{Forecast: forecast, Ingest: ingest}, nil
	}
	a.onClose(func() error { aiServices.Close(); return nil })

	splitter := chunker.New(
		chunker.WithChunkSize(cfg.Pipeline.ChunkSize),
		chunker.WithOverlap(cfg.Pipeline.ChunkOverlap),
	)
	deriver := services.NewTextDeriver(records, records, records, records)
	indices := services.NewIndexManager(indexStore, aiServices.Embedding, deriver, splitter)

	extractor := services.NewParameterExtractor(aiServices.LLM, a.prompts)
	fusion := services.NewFusionService(indices, aiServices.Embedding, aiServices.LLM, a.prompts, cfg.Pipeline.TopK)
	forecast := services.NewForecastService(records)
	narrative := services.NewNarrativeWriter(aiServices.LLM, a.prompts)

	pipeline := services.NewPipelineService(extractor, fusion, forecast, narrative, services.PipelineConfig{
		Timeout: cfg.Pipeline.Timeout,
		TopK:    cfg.Pipeline.TopK,
		Degree:  cfg.Pipeline.Degree,
	})
	pipeline.SetIndices(indices)
	pipeline.SetRenderer(pdf.NewRenderer(cfg.Store.ReportDir))
	if cfg.Gate.Enabled {
		pipeline.SetGate(gate.New(a.dataDir, cfg.Gate))
	}

	return &cli.Services{
		Pipeline:   pipeline,
		Extraction: extractor,
		Fusion:     fusion,
		Forecast:   forecast,
		Index:      indices,
		Ingest:     ingest,
	}, nil
}

func (a *App) ingestService(cfg *domain.AppConfig, store driven.RecordStore) *services.IngestService {
	var market driven.MarketDataProvider
	if cfg.Ingest.MarketAPIKey != "" {
		client, err := alphavantage.NewClient(alphavantage.Config{APIKey: cfg.Ingest.MarketAPIKey})
		if err != nil {
			logger.Warn("Market data provider disabled: %v", err)
		} else {
			market = client
		}
	}

	var news driven.NewsProvider
	if cfg.Ingest.NewsAPIKey != "" {
		client, err := newsapi.NewClient(newsapi.Config{APIKey: cfg.Ingest.NewsAPIKey, PageSize: cfg.Ingest.NewsPageSize})
		if err != nil {
			logger.Warn("News provider disabled: %v", err)
		} else {
			news = client
		}
	}

	svc := services.NewIngestService(market, news, store, services.NewRetryPolicy(cfg.Retry), cfg.Ingest)
	if cfg.Ingest.FetchFullText {
		svc.SetArticleExtractor(fulltext.NewExtractor(0))
	}
	return svc
}

func (a *App) onClose(fn func() error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, fn)
}

// Close releases adapters in reverse order of opening.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
