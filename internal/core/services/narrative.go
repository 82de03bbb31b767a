package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
	"github.com/custodia-labs/finrag/internal/logger"
)

// NarrativeWriter produces the report sections that surround the fused narrative.
type NarrativeWriter struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewNarrativeWriter creates a narrative writer. prompts may be nil.
func NewNarrativeWriter(llm driven.LLMService, prompts driven.PromptStore) *NarrativeWriter {
	return &NarrativeWriter{llm: llm, prompts: prompts}
}

// Write generates the executive summary, risk analysis and methodology
// sections. The fused narrative becomes the market analysis section. A section
// whose generation fails is left empty.
func (w *NarrativeWriter) Write(
	ctx context.Context, narrative string, params domain.QueryParameters,
) domain.NarrativeSections {
	logger.Section("Narrative Sections")

	sections := domain.NarrativeSections{MarketAnalysis: narrative}
	symbol := params.SymbolOrEmpty()

	sections.ExecutiveSummary = w.generate(ctx, driven.PromptExecutiveSummary, struct {
		Symbol, StartDate, EndDate, Context string
	}{symbol, domain.DateString(params.StartDate), domain.DateString(params.EndDate), narrative})

	sections.RiskAnalysis = w.generate(ctx, driven.PromptRiskAnalysis, struct {
		Symbol, Context string
	}{symbol, narrative})

	sections.Methodology = w.generate(ctx, driven.PromptMethodology, struct{}{})

	return sections
}

func (w *NarrativeWriter) generate(ctx context.Context, name string, data any) string {
	if w.llm == nil {
		logger.Warn("Section %s skipped: %v", name, domain.ErrLLMUnavailable)
		return ""
	}
	prompt, err := renderPrompt(w.prompts, name, data)
	if err != nil {
		logger.Warn("Section %s skipped: %v", name, err)
		return ""
	}
	out, err := w.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0})
	if err != nil {
		logger.Warn("Section %s failed: %v", name, err)
		return ""
	}
	return strings.TrimSpace(out)
}
