package domain

import "time"

// NarrativeSections are the language-model written parts of a report.
type NarrativeSections struct {
	ExecutiveSummary string `json:"executive_summary,omitempty"`
	MarketAnalysis   string `json:"market_analysis,omitempty"`
	RiskAnalysis     string `json:"risk_analysis,omitempty"`
	Methodology      string `json:"methodology,omitempty"`
}

// Report is everything the document renderer needs for one symbol.
type Report struct {
	ID          string
	Symbol      string
	StartDate   time.Time
	EndDate     time.Time
	Regression  *RegressionResult
	Indicators  TechnicalIndicators
	Sections    NarrativeSections
	GeneratedAt time.Time
}

// FileStem returns the base file name for the rendered report.
func (r Report) FileStem() string {
	return r.Symbol + "_financial_report_" + r.StartDate.Format(DateLayout) + "_to_" + r.EndDate.Format(DateLayout)
}

// PipelineResult is the output of one question run through the pipeline.
type PipelineResult struct {
	Question      string               `json:"question"`
	Params        QueryParameters      `json:"params"`
	Narrative     string               `json:"narrative"`
	NarrativeOnly bool                 `json:"narrative_only"`
	Forecast      *RegressionResult    `json:"forecast,omitempty"`
	Indicators    *TechnicalIndicators `json:"indicators,omitempty"`
	Sections      NarrativeSections    `json:"sections"`
	ReportPath    string               `json:"report_path,omitempty"`
}
