package driving

import "github.com/custodia-labs/finrag/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get builds the typed configuration from the store, defaults and environment.
	Get() (*domain.AppConfig, error)

	// Set stores one dot-key setting after checking the key is known.
	Set(key, value string) error
	// Keys lists every settable key in sorted order.
	Keys() []string

	// Validate checks the current configuration against its constraints.
	Validate() error

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig pings the configured LLM provider.
	ValidateLLMConfig() error
}
