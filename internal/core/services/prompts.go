package services

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/custodia-labs/finrag/internal/core/ports/driven"
	"github.com/custodia-labs/finrag/internal/logger"
)

// DefaultPrompts returns the built-in prompt templates keyed by prompt name.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptExtractParameters: `You are an intelligent financial assistant. Given the user's natural language query, extract the following as a JSON object:
- "symbol": The stock ticker of the company mentioned (e.g., "AAPL" for Apple, "MSFT" for Microsoft). If only a company name is provided, infer and return its ticker.
- "start_date": The start date of the time span (in format YYYY-MM-DD)
- "end_date": The end date of the time span (in format YYYY-MM-DD)

If any value is not found or not clearly stated, return null for that field.
Respond ONLY with a valid JSON object containing exactly the keys "symbol", "start_date" and "end_date".

Query: {{.Query}}`,

		driven.PromptFusion: `You are a highly knowledgeable and confident financial analyst AI. Your role is to provide thorough and insightful answers based on the context provided, which may include financial reports, stock trends, macroeconomic indicators, and news articles.

NEVER say that the data is insufficient or missing information or that you cannot answer. If some information is missing or vague, make intelligent inferences, explain broader implications, or explore related financial and economic trends. You must ALWAYS provide a meaningful response, even if speculative. Avoid phrases like "insufficient data", "not enough info", or "unable to answer".

Respond in 4-6 bullet points that reflect meaningful analysis. Keep the tone confident, objective, and analytical.

Context:
{{.Context}}

Question: {{.Question}}`,

		driven.PromptExecutiveSummary: `Write an executive summary (3-5 bullet points) for the company {{.Symbol}}, covering the period from {{.StartDate}} to {{.EndDate}}, based on the context below.

If any details are missing, make reasonable inferences or focus on broader trends. Do not mention insufficient data. Always generate a confident summary.

{{.Context}}`,

		driven.PromptRiskAnalysis: `List financial and macroeconomic risks affecting {{.Symbol}} in bullet points, based on the following context.

If any details are missing, make reasonable inferences or focus on broader trends. Do not mention insufficient data. Always generate a confident summary.

{{.Context}}`,

		driven.PromptMethodology: `Summarize the data sources and methods used in this financial analysis in bullet points. Include market data from Alpha Vantage, financial news from NewsAPI, polynomial regression for price predictions, and semantic vector search over news, financial report, economic indicator and price summary indices combined with retrieval-augmented generation.`,
	}
}

// renderPrompt loads the named template from store and executes it with data.
// A stored template that fails to parse or render is logged and the
// built-in default is used instead.
func renderPrompt(store driven.PromptStore, name string, data any) (string, error) {
	def, known := DefaultPrompts()[name]
	if store != nil {
		if loaded, err := store.Load(name); err == nil && strings.TrimSpace(loaded) != "" && loaded != def {
			out, err := executePrompt(name, loaded, data)
			if err == nil {
				return out, nil
			}
			logger.Warn("prompt %q: %v; using built-in default", name, err)
		}
	}
	if !known {
		return "", fmt.Errorf("prompt %q: not found", name)
	}
	return executePrompt(name, def, data)
}

func executePrompt(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse prompt %q: %w", name, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return b.String(), nil
}
