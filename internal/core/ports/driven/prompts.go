package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names. Templates use text/template syntax.
const (
	// PromptExtractParameters turns a question into the symbol/date JSON object.
	// Fields: .Query
	PromptExtractParameters = "extract_parameters"

	// PromptFusion synthesises the merged retrieval context into bullet points.
	// Fields: .Context, .Question
	PromptFusion = "fusion"

	// PromptExecutiveSummary writes the report executive summary.
	// Fields: .Symbol, .StartDate, .EndDate, .Context
	PromptExecutiveSummary = "executive_summary"

	// PromptRiskAnalysis lists risks for the symbol.
	// Fields: .Symbol, .Context
	PromptRiskAnalysis = "risk_analysis"

	// PromptMethodology describes data sources and methods. No fields.
	PromptMethodology = "methodology"
)
