package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
	"github.com/custodia-labs/finrag/internal/core/ports/driving"
	"github.com/custodia-labs/finrag/internal/logger"
)

// Ensure ParameterExtractor implements the interface.
var _ driving.ExtractionService = (*ParameterExtractor)(nil)

// extractionKeys are the keys the model must return.
var extractionKeys = []string{"symbol", "start_date", "end_date"}

// ParameterExtractor maps a free-text question to a symbol and date range.
type ParameterExtractor struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	now     func() time.Time
}

// NewParameterExtractor creates an extractor. prompts may be nil.
func NewParameterExtractor(llm driven.LLMService, prompts driven.PromptStore) *ParameterExtractor {
	return &ParameterExtractor{llm: llm, prompts: prompts, now: time.Now}
}

// SetClock overrides the clock used for the fallback date window.
func (e *ParameterExtractor) SetClock(now func() time.Time) {
	e.now = now
}

// Extract returns the query parameters, or all-null parameters when the
// model fails or breaks the JSON contract.
func (e *ParameterExtractor) Extract(ctx context.Context, query string) domain.QueryParameters {
	return e.ExtractDetailed(ctx, query).Params
}

// ExtractDetailed returns the tagged extraction outcome.
func (e *ParameterExtractor) ExtractDetailed(ctx context.Context, query string) domain.ExtractionResult {
	logger.Section("Parameter Extraction")

	if e.llm == nil {
		return unparseable("", fmt.Errorf("%w: %w", domain.ErrExtraction, domain.ErrLLMUnavailable))
	}

	prompt, err := renderPrompt(e.prompts, driven.PromptExtractParameters, struct{ Query string }{query})
	if err != nil {
		return unparseable("", fmt.Errorf("%w: %w", domain.ErrExtraction, err))
	}

	raw, err := e.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0})
	if err != nil {
		logger.Warn("Failed to extract parameters: %v", err)
		return unparseable("", fmt.Errorf("%w: %w", domain.ErrExtraction, err))
	}
	logger.Debug("Extraction response: %s", raw)

	params, err := DecodeParameters(raw)
	if err != nil {
		logger.Warn("Failed to extract parameters: %v", err)
		return unparseable(raw, err)
	}

	result := domain.ExtractionResult{
		Outcome: domain.ExtractionParsed,
		Params:  params,
		Raw:     raw,
	}
	if !params.HasDateRange() {
		start, end := domain.FallbackWindow(e.now())
		result.Params.StartDate = &start
		result.Params.EndDate = &end
		result.DatesDefaulted = true
		logger.Info("Defaulted date range to %s..%s", start.Format(domain.DateLayout), end.Format(domain.DateLayout))
	}
	return result
}

func unparseable(raw string, err error) domain.ExtractionResult {
	return domain.ExtractionResult{Outcome: domain.ExtractionUnparseable, Raw: raw, Err: err}
}

// DecodeParameters strictly decodes a model response. The response may be
// wrapped in a code fence; it must be a JSON object carrying the keys symbol,
// start_date and end_date, each a string or null. Other keys are ignored.
// Empty strings are treated as null, and a date that is neither YYYY-MM-DD
// nor RFC 3339 is treated as missing so the caller applies the fallback
// window without losing the symbol.
func DecodeParameters(raw string) (domain.QueryParameters, error) {
	var params domain.QueryParameters
	body := StripCodeFence(raw)

	dec := json.NewDecoder(strings.NewReader(body))
	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return params, fmt.Errorf("%w: decode: %w", domain.ErrExtraction, err)
	}
	if dec.More() {
		return params, fmt.Errorf("%w: trailing data after object", domain.ErrExtraction)
	}

	values := make(map[string]*string, len(extractionKeys))
	for _, key := range extractionKeys {
		rawValue, ok := fields[key]
		if !ok {
			return params, fmt.Errorf("%w: missing key %q", domain.ErrExtraction, key)
		}
		var v *string
		if err := json.Unmarshal(rawValue, &v); err != nil {
			return params, fmt.Errorf("%w: key %q: %w", domain.ErrExtraction, key, err)
		}
		if v != nil && strings.TrimSpace(*v) == "" {
			v = nil
		}
		values[key] = v
	}

	params.Symbol = values["symbol"]
	for key, dst := range map[string]**time.Time{"start_date": &params.StartDate, "end_date": &params.EndDate} {
		v := values[key]
		if v == nil {
			continue
		}
		t, ok := parseDate(*v)
		if !ok {
			logger.Warn("Ignoring unparseable %s %q", key, *v)
			continue
		}
		*dst = &t
	}
	return params, nil
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(domain.DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// StripCodeFence removes an optional markdown code fence (with or without a
// language tag) around a model response.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		tag := strings.TrimSpace(s[:nl])
		if tag == "" || !strings.ContainsAny(tag, "{[") {
			s = s[nl+1:]
		}
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
