package domain

import "time"

// QueryParameters is the structured form of a free-text question.
// A nil Symbol means narrative-only mode; it is never defaulted.
type QueryParameters struct {
	Symbol    *string    `json:"symbol"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// HasSymbol reports whether a ticker was resolved.
func (p QueryParameters) HasSymbol() bool {
	return p.Symbol != nil && *p.Symbol != ""
}

// SymbolOrEmpty returns the symbol or "".
func (p QueryParameters) SymbolOrEmpty() string {
	if p.Symbol == nil {
		return ""
	}
	return *p.Symbol
}

// HasDateRange reports whether both dates are set.
func (p QueryParameters) HasDateRange() bool {
	return p.StartDate != nil && p.EndDate != nil
}

// IsEmpty reports whether every field is null.
func (p QueryParameters) IsEmpty() bool {
	return p.Symbol == nil && p.StartDate == nil && p.EndDate == nil
}

// DateString formats an optional date, returning "" for nil.
func DateString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// FallbackWindow returns the default range used when the extracted dates are incomplete:
// the 365 days ending today.
func FallbackWindow(today time.Time) (start, end time.Time) {
	end = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	start = end.AddDate(0, 0, -365)
	return start, end
}

// ExtractionOutcome tags how an extraction response was interpreted.
type ExtractionOutcome int

const (
	// ExtractionUnparseable means the model failed or its response broke the JSON contract.
	ExtractionUnparseable ExtractionOutcome = iota

	// ExtractionParsed means the response decoded into the required object.
	ExtractionParsed
)

// String returns the string representation.
func (o ExtractionOutcome) String() string {
	if o == ExtractionParsed {
		return "parsed"
	}
	return "unparseable"
}

// ExtractionResult is the tagged outcome of parameter extraction.
// Params is all-null whenever Outcome is ExtractionUnparseable.
type ExtractionResult struct {
	Outcome        ExtractionOutcome
	Params         QueryParameters
	DatesDefaulted bool
	Raw            string
	Err            error
}
