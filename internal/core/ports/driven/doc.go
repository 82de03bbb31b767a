// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Generates vector embeddings for chunks and questions
//   - LLMService: Completes prompts for extraction and synthesis
//   - IndexStore: Persists one vector index per domain
//   - PriceStore, ReportStore, IndicatorStore, NewsStore: Relational source data
//   - ConfigStore: Application configuration
//   - PromptStore: Prompt templates
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - MarketDataProvider, NewsProvider: Only needed for ingestion.
//   - ArticleExtractor: Full-text enrichment of news articles.
//   - ReportRenderer: Without it, the pipeline stops after forecasting.
//   - RunGate: Without it, every run is allowed.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or provider package
package driven
