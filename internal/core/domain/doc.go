// Package domain defines the core business entities for finrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Market records: PriceBar, FinancialReport, IndicatorPoint, NewsArticle
//   - Retrieval: TextBlock, Chunk, VectorIndex, RetrievalResult
//   - Querying: QueryParameters, ExtractionResult
//   - Forecasting: PriceSeries, RegressionResult, TechnicalIndicators
//   - Reporting: Report, PipelineResult
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
