package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
	"github.com/custodia-labs/finrag/internal/core/ports/driving"
	"github.com/custodia-labs/finrag/internal/logger"
)

// Ensure PipelineService implements the interface.
var _ driving.PipelineService = (*PipelineService)(nil)

// SectionWriter produces narrative report sections.
type SectionWriter interface {
	Write(ctx context.Context, narrative string, params domain.QueryParameters) domain.NarrativeSections
}

// IndexWarmer builds missing indices ahead of a run.
type IndexWarmer interface {
	EnsureAll(ctx context.Context) error
}

// PipelineConfig tunes a pipeline run.
type PipelineConfig struct {
	Timeout time.Duration
	TopK    int
	Degree  int
}

// PipelineService sequences extraction, fusion, forecasting and report assembly.
type PipelineService struct {
	extractor  driving.ExtractionService
	fusion     driving.FusionService
	forecaster driving.ForecastService
	sections   SectionWriter
	renderer   driven.ReportRenderer
	gate       driven.RunGate
	indices    IndexWarmer
	cfg        PipelineConfig
	now        func() time.Time
}

// NewPipelineService creates a pipeline. renderer and gate are optional.
func NewPipelineService(
	extractor driving.ExtractionService,
	fusion driving.FusionService,
	forecaster driving.ForecastService,
	sections SectionWriter,
	cfg PipelineConfig,
) *PipelineService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = domain.DefaultTimeout
	}
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultTopK
	}
	if cfg.Degree <= 0 {
		cfg.Degree = domain.DefaultDegree
	}
	return &PipelineService{
		extractor:  extractor,
		fusion:     fusion,
		forecaster: forecaster,
		sections:   sections,
		cfg:        cfg,
		now:        time.Now,
	}
}

// SetRenderer sets the report renderer. Without one, runs stop after forecasting.
func (p *PipelineService) SetRenderer(r driven.ReportRenderer) {
	p.renderer = r
}

// SetGate sets the run gate checked before each run.
func (p *PipelineService) SetGate(g driven.RunGate) {
	p.gate = g
}

// SetIndices sets the index manager whose missing indices are built before
// the run deadline starts.
func (p *PipelineService) SetIndices(w IndexWarmer) {
	p.indices = w
}

type pipelineOutcome struct {
	result *domain.PipelineResult
	err    error
}

// Run answers question under the configured deadline. Missing indices are
// built first, outside the deadline. When the deadline passes, the in-flight
// work is cancelled, its partial result is discarded and domain.ErrTimeout is
// returned.
func (p *PipelineService) Run(ctx context.Context, question string) (*domain.PipelineResult, error) {
	if p.gate != nil {
		if err := p.gate.Admit(ctx); err != nil {
			return nil, err
		}
	}
	if p.indices != nil {
		if err := p.indices.EnsureAll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("Index preparation failed: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	done := make(chan pipelineOutcome, 1)
	go func() {
		res, err := p.run(ctx, question)
		done <- pipelineOutcome{result: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, p.contextError(ctx)
	case out := <-done:
		if ctx.Err() != nil {
			return nil, p.contextError(ctx)
		}
		return out.result, out.err
	}
}

func (p *PipelineService) contextError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		logger.Error("Pipeline timed out after %s", p.cfg.Timeout)
		return fmt.Errorf("%w after %s", domain.ErrTimeout, p.cfg.Timeout)
	}
	return ctx.Err()
}

func (p *PipelineService) run(ctx context.Context, question string) (*domain.PipelineResult, error) {
	logger.Section("Pipeline")
	logger.Info("Question: %s", question)

	// 1. Extract parameters
	params := p.extractor.Extract(ctx, question)
	result := &domain.PipelineResult{Question: question, Params: params}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 2. Fuse retrieval (symbol-independent)
	result.Narrative = p.fusion.Fuse(ctx, question, p.cfg.TopK)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !params.HasSymbol() {
		result.NarrativeOnly = true
		logger.Warn("No symbol detected. Skipping forecast and report.")
		logger.Info("AI Summary:\n%s", result.Narrative)
		return result, nil
	}
	symbol := params.SymbolOrEmpty()

	// 3. Forecast
	forecast, err := p.forecaster.Forecast(ctx, symbol, params.StartDate, params.EndDate, p.cfg.Degree)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if forecast == nil {
		logger.Warn("Forecast unavailable for %s, skipping report", symbol)
		return result, nil
	}
	result.Forecast = forecast

	indicators, err := p.forecaster.TechnicalIndicators(ctx, symbol, params.StartDate, params.EndDate)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	result.Indicators = &indicators
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 4. Narrative sections
	if p.sections != nil {
		result.Sections = p.sections.Write(ctx, result.Narrative, params)
	} else {
		result.Sections = domain.NarrativeSections{MarketAnalysis: result.Narrative}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 5. Report assembly
	if p.renderer == nil {
		return result, nil
	}
	report := p.assemble(symbol, params, forecast, indicators, result.Sections)
	path, err := p.renderer.Render(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("pipeline: render report: %w", err)
	}
	result.ReportPath = path
	logger.Info("Report written to %s", path)
	return result, nil
}

func (p *PipelineService) assemble(
	symbol string,
	params domain.QueryParameters,
	forecast *domain.RegressionResult,
	indicators domain.TechnicalIndicators,
	sections domain.NarrativeSections,
) *domain.Report {
	start := forecast.Series[0].Date
	end := forecast.Series[len(forecast.Series)-1].Date
	if params.StartDate != nil {
		start = *params.StartDate
	}
	if params.EndDate != nil {
		end = *params.EndDate
	}
	return &domain.Report{
		ID:          uuid.New().String(),
		Symbol:      symbol,
		StartDate:   start,
		EndDate:     end,
		Regression:  forecast,
		Indicators:  indicators,
		Sections:    sections,
		GeneratedAt: p.now().UTC(),
	}
}
