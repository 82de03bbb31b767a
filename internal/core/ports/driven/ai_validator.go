package driven

import "github.com/custodia-labs/finrag/internal/core/domain"

// AIConfigValidator verifies AI provider settings by contacting the provider.
type AIConfigValidator interface {
	// ValidateEmbedding pings the configured embedding provider.
	// Returns nil when the settings are not configured.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM pings the configured LLM provider.
	// Returns nil when the settings are not configured.
	ValidateLLM(config *domain.LLMSettings) error
}
